package cache

// ScopedKeyer prefixes every key of an inner [Keyer].
//
// The server scopes keys by database so that two item databases never share
// recipe rows:
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "db:"+Hash([]byte(path))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) RecipeKey(item int) string {
	return k.prefix + k.inner.RecipeKey(item)
}

func (k *ScopedKeyer) LayoutKey(rowsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(rowsHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
