package middleware

// configStrings reads a list-of-strings key from a plugin config map.
// The config loaders differ on list decoding, so both []string and
// []interface{} are accepted.
func configStrings(cfg map[string]interface{}, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// configFloat reads a numeric key, tolerating the int/float split
// between the JSON, YAML and TOML decoders.
func configFloat(cfg map[string]interface{}, key string) (float64, bool) {
	switch v := cfg[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
