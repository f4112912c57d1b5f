package cache

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = (%q, %v), want (nil, false)", data, hit)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "recipe:7"); err != nil || hit {
		t.Fatalf("Get() on empty cache = (%v, %v), want miss", hit, err)
	}
	if err := c.Set(ctx, "recipe:7", []byte(`[[7,"Steam",-1]]`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "recipe:7")
	if err != nil || !hit {
		t.Fatalf("Get() = (%v, %v), want hit", hit, err)
	}
	if got := string(data); got != `[[7,"Steam",-1]]` {
		t.Errorf("Get() data = %s, want the stored rows", got)
	}

	if err := c.Delete(ctx, "recipe:7"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "recipe:7"); hit {
		t.Error("Get() after Delete() hit")
	}
	if err := c.Delete(ctx, "recipe:7"); err != nil {
		t.Errorf("Delete() of a missing key error = %v", err)
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() hit an expired entry")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry still on disk: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() = (%v, %v), want a silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear(), want 0", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Hash collides for different inputs")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("items", "after=0"); got != "http:items:after=0" {
		t.Errorf("HTTPKey() = %q", got)
	}
	if got := k.RecipeKey(42); got != "recipe:42" {
		t.Errorf("RecipeKey() = %q, want recipe:42", got)
	}

	l1 := k.LayoutKey("rows", LayoutKeyOpts{RowSpacing: 75, ColumnSpacing: 20})
	l2 := k.LayoutKey("rows", LayoutKeyOpts{RowSpacing: 75, ColumnSpacing: 30})
	if l1 == l2 {
		t.Error("LayoutKey ignores ColumnSpacing")
	}
	if !strings.HasPrefix(l1, "layout:") {
		t.Errorf("LayoutKey() = %q, want layout: prefix", l1)
	}

	a1 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("layout", ArtifactKeyOpts{Format: "png"})
	if a1 == a2 {
		t.Error("ArtifactKey ignores Format")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "db:abc:")

	if got := scoped.RecipeKey(7); got != "db:abc:recipe:7" {
		t.Errorf("RecipeKey() = %q", got)
	}
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "db:abc:layout:") {
		t.Errorf("LayoutKey() = %q, want prefixed key", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "db:abc:artifact:") {
		t.Errorf("ArtifactKey() = %q, want prefixed key", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if got := scoped.HTTPKey("test", "key"); got != "prefix:http:test:key" {
		t.Errorf("HTTPKey() = %q", got)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "://nope", ""); err == nil {
		t.Error("NewRedisCache() with a bad url returned nil error")
	}
}

// memRedis answers GET, SET and DEL from a map so RedisCache can be tested
// without a server. Commands never reach the network.
type memRedis struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, fmt.Errorf("memRedis does not dial")
	}
}

func (m *memRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		args := cmd.Args()
		key := fmt.Sprint(args[1])
		switch c := cmd.(type) {
		case *redis.StringCmd: // GET
			v, ok := m.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(string(v))
		case *redis.StatusCmd: // SET key value [PX ms | EX s]
			m.data[key] = append([]byte(nil), args[2].([]byte)...)
			if len(args) == 5 {
				n, _ := args[4].(int64)
				unit := time.Second
				if strings.EqualFold(fmt.Sprint(args[3]), "px") {
					unit = time.Millisecond
				}
				m.ttl[key] = time.Duration(n) * unit
			}
			c.SetVal("OK")
		case *redis.IntCmd: // DEL
			var n int64
			if _, ok := m.data[key]; ok {
				delete(m.data, key)
				n = 1
			}
			c.SetVal(n)
		default:
			return fmt.Errorf("memRedis: unsupported command %s", cmd.Name())
		}
		return nil
	}
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	client.AddHook(mem)
	c := NewRedisCacheFromClient(client, "craftree:")
	defer c.Close()

	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get() on empty cache error = %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = (%q, %v), want miss", data, hit)
	}

	if err := c.Set(ctx, "layout:abc", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := mem.data["craftree:layout:abc"]; !ok {
		t.Errorf("stored keys = %v, want craftree:layout:abc", mem.data)
	}
	if got := mem.ttl["craftree:layout:abc"]; got != time.Hour {
		t.Errorf("ttl = %v, want %v", got, time.Hour)
	}

	data, hit, err = c.Get(ctx, "layout:abc")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get() = (%q, %v, %v), want (value, true, nil)", data, hit, err)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("Get() after Delete() hit")
	}
}
