package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("specific types", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newTestHandler()
		r.Register(h, "stock.purchase.posted", "stock.writeoff.created")

		assert.Len(t, r.HandlersFor("stock.purchase.posted"), 1)
		assert.Len(t, r.HandlersFor("stock.writeoff.created"), 1)
		assert.Empty(t, r.HandlersFor("material.created"))
	})

	t.Run("wildcard follows specific handlers", func(t *testing.T) {
		r := NewHandlerRegistry()
		specific := newTestHandler()
		all := newTestHandler()
		r.Register(all)
		r.Register(specific, "stock.writeoff.created")

		handlers := r.HandlersFor("stock.writeoff.created")
		assert.Len(t, handlers, 2)
		assert.Same(t, specific, handlers[0])
		assert.Same(t, all, handlers[1])
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newTestHandler()
		r.Register(h, "stock.writeoff.created")
		r.Register(h, "stock.writeoff.created")
		r.Register(h)

		assert.Len(t, r.HandlersFor("stock.writeoff.created"), 1)
		assert.Equal(t, 1, r.Count())
	})

	t.Run("unregister drops empty types", func(t *testing.T) {
		r := NewHandlerRegistry()
		h1 := newTestHandler()
		h2 := newTestHandler()
		r.Register(h1, "a", "b")
		r.Register(h2, "b")

		r.Unregister(h1)

		assert.Empty(t, r.HandlersFor("a"))
		assert.Len(t, r.HandlersFor("b"), 1)
		assert.Equal(t, 1, r.Count())
		_, ok := r.handlers["a"]
		assert.False(t, ok)
	})
}
