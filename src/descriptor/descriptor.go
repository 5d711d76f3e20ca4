// Package descriptor resolves a raw build manifest into a validated
// BuildDescriptor for the native packaging step.
//
// Resolution is a pure function of the manifest and the build environment
// handed to NewResolver: it reads no process state, has no side effects, and
// returns structurally equal descriptors for equal inputs.
package descriptor

// SigningRef names the signing profile applied to the package.
type SigningRef string

const (
	SigningDebug   SigningRef = "debug"
	SigningRelease SigningRef = "release"
)

// Manifest keys, in the order they are validated.
const (
	FieldApplicationID          = "applicationId"
	FieldNamespace              = "namespace"
	FieldMinPlatformVersion     = "minPlatformVersion"
	FieldTargetPlatformVersion  = "targetPlatformVersion"
	FieldCompilePlatformVersion = "compilePlatformVersion"
	FieldVersionCode            = "versionCode"
	FieldVersionName            = "versionName"
	FieldSigningConfigRef       = "signingConfigRef"
	FieldToolchainVersion       = "toolchainVersion"
	FieldDesugaringEnabled      = "desugaringEnabled"
	FieldDesugarLibrary         = "desugarLibrary"
	FieldJavaVersion            = "javaVersion"
	FieldJVMTarget              = "jvmTarget"
)

// Fields lists every manifest key the resolver understands.
var Fields = []string{
	FieldApplicationID,
	FieldNamespace,
	FieldMinPlatformVersion,
	FieldTargetPlatformVersion,
	FieldCompilePlatformVersion,
	FieldVersionCode,
	FieldVersionName,
	FieldSigningConfigRef,
	FieldToolchainVersion,
	FieldDesugaringEnabled,
	FieldDesugarLibrary,
	FieldJavaVersion,
	FieldJVMTarget,
}

// BuildDescriptor is the validated, normalized build configuration.
// It is returned by value and has no mutators.
type BuildDescriptor struct {
	ApplicationID          string     `yaml:"applicationId" json:"applicationId" toml:"applicationId"`
	Namespace              string     `yaml:"namespace" json:"namespace" toml:"namespace"`
	MinPlatformVersion     int        `yaml:"minPlatformVersion" json:"minPlatformVersion" toml:"minPlatformVersion"`
	TargetPlatformVersion  int        `yaml:"targetPlatformVersion" json:"targetPlatformVersion" toml:"targetPlatformVersion"`
	CompilePlatformVersion int        `yaml:"compilePlatformVersion" json:"compilePlatformVersion" toml:"compilePlatformVersion"`
	VersionCode            int        `yaml:"versionCode" json:"versionCode" toml:"versionCode"`
	VersionName            string     `yaml:"versionName" json:"versionName" toml:"versionName"`
	SigningConfigRef       SigningRef `yaml:"signingConfigRef" json:"signingConfigRef" toml:"signingConfigRef"`
	ToolchainVersion       string     `yaml:"toolchainVersion,omitempty" json:"toolchainVersion,omitempty" toml:"toolchainVersion,omitempty"`
	DesugaringEnabled      bool       `yaml:"desugaringEnabled" json:"desugaringEnabled" toml:"desugaringEnabled"`
	DesugarLibrary         string     `yaml:"desugarLibrary,omitempty" json:"desugarLibrary,omitempty" toml:"desugarLibrary,omitempty"`
	JavaVersion            string     `yaml:"javaVersion" json:"javaVersion" toml:"javaVersion"`
	JVMTarget              string     `yaml:"jvmTarget" json:"jvmTarget" toml:"jvmTarget"`
}
