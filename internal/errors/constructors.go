package errors

// Convenience functions for the pipeline failure taxonomy

// Config errors

func ConfigInvalid(path string, cause error) *BuildError {
	return Wrap(cause, KindInvalidConfig, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BuildError {
	return New(KindInvalidConfig, CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Module compiler errors

func MissingSourceDirectory(path string) *BuildError {
	return New(KindMissingSourceDirectory, CategoryFileSystem, SeverityFatal, "source directory not found").
		WithContext("path", path)
}

func ArtifactNotProduced(stage, path string) *BuildError {
	return New(KindArtifactNotProduced, CategoryBuild, SeverityFatal, "expected artifact was not produced").
		WithContext("stage", stage).
		WithContext("path", path)
}

func CompileFailed(cause error) *BuildError {
	return Wrap(cause, KindCompileFailed, CategoryToolchain, SeverityFatal, "wasm build failed")
}

// Application bundler errors

func TypecheckFailed(cause error) *BuildError {
	return Wrap(cause, KindTypecheckFailed, CategoryToolchain, SeverityFatal, "typescript check failed")
}

func BundleFailed(cause error) *BuildError {
	return Wrap(cause, KindBundleFailed, CategoryToolchain, SeverityFatal, "bundling failed")
}

func DependencyMissing(path, hint string) *BuildError {
	return New(KindDependencyMissing, CategoryBuild, SeverityFatal, "required build output missing, "+hint).
		WithContext("path", path)
}

// Staging and serving errors

func StagingFailed(dst string, cause error) *BuildError {
	return Wrap(cause, KindStagingFailed, CategoryFileSystem, SeverityFatal, "failed to stage artifact").
		WithContext("path", dst)
}

func ServerLaunchFailed(cause error) *BuildError {
	return Wrap(cause, KindServerLaunchFailed, CategoryRuntime, SeverityFatal, "dev server failed")
}

// Verification errors

func VerificationFailed(failed int) *BuildError {
	return New(KindVerificationFailed, CategoryBuild, SeverityError, "environment verification failed").
		WithContext("failed_checks", failed)
}

// Internal errors

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, KindInternal, CategoryInternal, SeverityFatal, message)
}
