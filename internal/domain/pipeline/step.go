package pipeline

// Step names one stage of the release pipeline.
type Step string

// Pipeline stages in execution order.
const (
	StepCheckout             Step = "checkout"
	StepProvisionRuntime     Step = "provision-runtime"
	StepInstallDependencies  Step = "install-dependencies"
	StepBuildExecutable      Step = "build-executable"
	StepAssembleDistribution Step = "assemble-distribution"
	StepCreateArchive        Step = "create-archive"
	StepPublishArtifact      Step = "publish-artifact"
	StepCreateRelease        Step = "create-release"
	StepUploadAsset          Step = "upload-asset"
)

// Steps returns every stage in the order the pipeline runs them.
func Steps() []Step {
	return []Step{
		StepCheckout,
		StepProvisionRuntime,
		StepInstallDependencies,
		StepBuildExecutable,
		StepAssembleDistribution,
		StepCreateArchive,
		StepPublishArtifact,
		StepCreateRelease,
		StepUploadAsset,
	}
}

// Category returns the failure category reported when s fails.
func (s Step) Category() Category {
	switch s {
	case StepCheckout, StepProvisionRuntime:
		return CategoryEnvironment
	case StepInstallDependencies:
		return CategoryDependency
	case StepBuildExecutable:
		return CategoryCompilation
	case StepAssembleDistribution, StepCreateArchive:
		return CategoryAssembly
	case StepPublishArtifact:
		return CategoryArtifact
	case StepCreateRelease, StepUploadAsset:
		return CategoryRemote
	default:
		return CategoryUnknown
	}
}
