package manifest

// Manageable kinds. Anything else a host reports is never listed.
const (
	TypeExtension   = "extension"
	TypeTheme       = "theme"
	TypePackagedApp = "packaged_app"
	TypeHostedApp   = "hosted_app"
	TypeLoginItem   = "login_item"
)

// ValidTypes lists every type the schema accepts.
var ValidTypes = []string{TypeExtension, TypeTheme, TypePackagedApp, TypeHostedApp, TypeLoginItem}

// ManageableTypes lists the types shown to the user.
var ManageableTypes = []string{TypeExtension, TypeTheme, TypePackagedApp, TypeHostedApp}

// Manifest is the parsed manifest.yaml of one installed extension.
type Manifest struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string `yaml:"author,omitempty" json:"author,omitempty"`
	// MayDisable is false for policy-installed extensions; nil means true.
	MayDisable *bool  `yaml:"may_disable,omitempty" json:"may_disable,omitempty"`
	Icons      []Icon `yaml:"icons,omitempty" json:"icons,omitempty"`
}

// Icon is one declared icon size.
type Icon struct {
	Size int    `yaml:"size" json:"size"`
	URL  string `yaml:"url" json:"url"`
}

// CanDisable reports whether the user may change the enabled state.
func (m *Manifest) CanDisable() bool {
	return m.MayDisable == nil || *m.MayDisable
}
