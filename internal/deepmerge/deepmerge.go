package deepmerge

// Extend deep-merges src into dst and returns dst. Nested maps are merged
// recursively; any other value from src replaces the one in dst. dst may be
// nil, in which case a new map is allocated. src is never mutated.
func Extend(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		prev, _ := dst[k].(map[string]any)
		dst[k] = Extend(copyShallow(prev), sub)
	}
	return dst
}

// Strings merges string maps left to right, later maps winning on key
// collision. The result is always a fresh map.
func Strings(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func copyShallow(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
