package properties

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Core    *yamlCore    `yaml:"core,omitempty"`
	Compute *yamlCompute `yaml:"compute,omitempty"`
}

type yamlCore struct {
	Account *string `yaml:"account,omitempty"`
	Project *string `yaml:"project,omitempty"`
}

type yamlCompute struct {
	Region *string `yaml:"region,omitempty"`
	Zone   *string `yaml:"zone,omitempty"`
}

// MarshalYAML renders the properties in the nested section/field shape
// printed by `gcloud config configurations describe`.
func (p Properties) MarshalYAML() (interface{}, error) {
	var doc yamlDocument
	if p.project != nil || p.account != nil {
		doc.Core = &yamlCore{Account: p.account, Project: p.project}
	}
	if p.zone != nil || p.region != nil {
		compute := &yamlCompute{}
		if p.zone != nil {
			zone := p.zone.String()
			compute.Zone = &zone
		}
		if p.region != nil {
			region := p.region.String()
			compute.Region = &region
		}
		doc.Compute = compute
	}
	return doc, nil
}

// WriteYAML encodes p as a YAML document to w.
func WriteYAML(w io.Writer, p Properties) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode properties as yaml: %w", err)
	}
	return enc.Close()
}
