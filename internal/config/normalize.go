package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	c := &cfg.Controller

	if c.DeviceName == "" {
		c.DeviceName = Default().Controller.DeviceName
	}
	// uinput device names are capped at 79 characters plus the terminator.
	if len(c.DeviceName) > 79 {
		c.DeviceName = c.DeviceName[:79]
	}
}
