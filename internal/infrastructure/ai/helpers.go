package ai

func valueOrDefault(value string, def string) string {
	if value == "" {
		return def
	}
	return value
}
