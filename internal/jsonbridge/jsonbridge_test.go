package jsonbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_FromRawJSONString(t *testing.T) {
	assert.Equal(t, "Alice", Get(`{"name":"Alice","age":30}`, "name"))
}

func TestGet_FromAlreadyDecodedMap(t *testing.T) {
	source := map[string]interface{}{"name": "Bob", "tags": []interface{}{"a", "b"}}
	assert.Equal(t, "Bob", Get(source, "name"))
	assert.Equal(t, []interface{}{"a", "b"}, Get(source, "tags"))
}

func TestGet_MissingPathReturnsNil(t *testing.T) {
	assert.Nil(t, Get(`{"a":1}`, "b.c"))
}

func TestGet_NilSourceReturnsNil(t *testing.T) {
	assert.Nil(t, Get(nil, "a"))
}

func TestExists(t *testing.T) {
	assert.True(t, Exists(`{"a":{"b":1}}`, "a.b"))
	assert.False(t, Exists(`{"a":{"b":1}}`, "a.c"))
	assert.False(t, Exists(nil, "a"))
}

func TestSize_Array(t *testing.T) {
	assert.Equal(t, 3, Size(`{"items":[1,2,3]}`, "items"))
}

func TestSize_Object(t *testing.T) {
	assert.Equal(t, 2, Size(`{"obj":{"x":1,"y":2}}`, "obj"))
}

func TestSize_String(t *testing.T) {
	assert.Equal(t, 5, Size(`{"s":"hello"}`, "s"))
}

func TestSize_MissingPathIsZero(t *testing.T) {
	assert.Equal(t, 0, Size(`{"a":1}`, "nope"))
}
