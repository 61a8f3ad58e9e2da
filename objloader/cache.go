package objloader

import (
	"container/list"

	"github.com/mechiko/pdflite/types"
)

// lru is a fixed-capacity, least-recently-used cache keyed by object
// id. The spec calls for "capacity-bounded cache... LRU eviction"; no
// ecosystem LRU package appears anywhere in the retrieval pack, so this
// is hand-written, following the textbook container/list + map
// construction (see DESIGN.md).
type lru struct {
	capacity int
	ll       *list.List
	items    map[types.ObjectID]*list.Element
}

type lruEntry struct {
	key types.ObjectID
	obj types.PDFObject
}

func newLRU(capacity int) *lru {
	if capacity <= 0 {
		capacity = 1
	}
	return &lru{capacity: capacity, ll: list.New(), items: map[types.ObjectID]*list.Element{}}
}

func (c *lru) get(id types.ObjectID) (types.PDFObject, bool) {
	el, ok := c.items[id]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).obj, true
}

func (c *lru) put(id types.ObjectID, obj types.PDFObject) {
	if el, ok := c.items[id]; ok {
		el.Value.(*lruEntry).obj = obj
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&lruEntry{key: id, obj: obj})
	c.items[id] = el
	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *lru) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*lruEntry).key)
}
