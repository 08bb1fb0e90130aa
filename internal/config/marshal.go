package config

// MarshalYAML implements yaml.Marshaler so the HAR converter (internal/har)
// can emit ResponseBody values in the same shape UnmarshalYAML expects.
func (b ResponseBody) MarshalYAML() (interface{}, error) {
	kind := b.Kind
	if kind == "" {
		kind = BodyEmpty
	}
	if kind == BodyEmpty {
		return struct {
			Type ResponseBodyKind `yaml:"type"`
		}{Type: BodyEmpty}, nil
	}

	return struct {
		Type ResponseBodyKind `yaml:"type"`
		Data string           `yaml:"data,omitempty"`
		File string           `yaml:"file,omitempty"`
	}{Type: kind, Data: b.Data.Data, File: b.Data.File}, nil
}
