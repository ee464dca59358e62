package rulecache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fireflyframework/ruleenginectl/internal/rulecache"
)

func TestCache_PutGet(t *testing.T) {
	c := rulecache.New(0)
	c.Put("ast:abc", "compiled")

	v, ok := c.Get("ast:abc")
	assert.True(t, ok)
	assert.Equal(t, "compiled", v)
}

func TestCache_MissingKey(t *testing.T) {
	c := rulecache.New(0)
	_, ok := c.Get("ast:missing")
	assert.False(t, ok)
}

func TestCache_Evict(t *testing.T) {
	c := rulecache.New(0)
	c.Put("constant:CODE", 42)
	c.Evict("constant:CODE")

	_, ok := c.Get("constant:CODE")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := rulecache.New(0)
	c.Put("ast:a", 1)
	c.Put("ast:b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	c := rulecache.New(time.Millisecond)
	c.Put("validation:r1", "report")

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("validation:r1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_NoTTLNeverExpires(t *testing.T) {
	c := rulecache.New(0)
	c.Put("rule-def:r1", "source")
	time.Sleep(2 * time.Millisecond)

	v, ok := c.Get("rule-def:r1")
	assert.True(t, ok)
	assert.Equal(t, "source", v)
}
