package module

// Region identifies a mountable area of the page. The set is closed: adding a
// region means adding a constant and its Lifecycle entry below.
type Region int

const (
	RegionWorkspace Region = iota
)

// Lifecycle names the exports that attach and detach a region's content.
type Lifecycle struct {
	Mount   string
	Unmount string
}

var lifecycles = map[Region]Lifecycle{
	RegionWorkspace: {Mount: "mount_workspace", Unmount: "unmount_workspace"},
}

var regionNames = map[Region]string{
	RegionWorkspace: "workspace",
}

func (r Region) String() string {
	if n, ok := regionNames[r]; ok {
		return n
	}
	return "unknown"
}

// Lifecycle returns the region's handler pair.
func (r Region) Lifecycle() (Lifecycle, bool) {
	lc, ok := lifecycles[r]
	return lc, ok
}

// Regions lists every known region in declaration order.
func Regions() []Region {
	return []Region{RegionWorkspace}
}

// ParseRegion maps a region name back to its constant.
func ParseRegion(name string) (Region, bool) {
	for r, n := range regionNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

// ControlExports are the non-lifecycle functions the presentation layer calls.
var ControlExports = []string{
	"test_wasm",
	"update_selected_position",
	"bring_to_front",
	"send_to_back",
	"select_layer",
}
