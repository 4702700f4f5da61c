package ledger

// ResourceInfo is the display data of a resource. Name and Description
// are empty unless registered with WithCatalog.
type ResourceInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Title is the name to show to people, the key when no name is set.
func (i ResourceInfo) Title() string {
	if i.Name == "" {
		return i.Key
	}
	return i.Name
}

// WithCatalog registers resources upfront together with their display data.
func WithCatalog(infos ...ResourceInfo) Option {
	return func(l *Ledger) {
		for _, info := range infos {
			if info.Key == "" {
				continue
			}
			l.known = append(l.known, info.Key)
			l.info[info.Key] = info
		}
	}
}

// Catalog returns every resource the ledger knows, ordered by key.
func (l *Ledger) Catalog() []ResourceInfo {
	keys := l.Resources()

	out := make([]ResourceInfo, 0, len(keys))
	for _, key := range keys {
		out = append(out, l.Describe(key))
	}
	return out
}

func (l *Ledger) Describe(key string) ResourceInfo {
	info, ok := l.info[key]
	if !ok {
		return ResourceInfo{Key: key}
	}
	return info
}
