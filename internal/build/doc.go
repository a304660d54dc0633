// Package build runs the production pipeline: module compilation followed by
// application bundling, in that fixed order.
//
// Lower stages only return structured errors. Turning a failed PipelineResult
// into a process exit code is left to the CLI.
package build
