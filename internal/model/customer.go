package model

// CustomerRecord is a single billing customer as known to the resolver.
type CustomerRecord struct {
	ID         string
	Name       string
	ParentID   string   // empty when the upstream record carries no parent
	ParentName string
	Children   []string // child ids in discovery order
	Depth      int      // 0 = unresolved, 1 = root
}

// HasChild reports whether id is already linked as a child.
func (c *CustomerRecord) HasChild(id string) bool {
	for _, ch := range c.Children {
		if ch == id {
			return true
		}
	}
	return false
}

// AddChild appends id to Children unless it is already present.
// Returns true if the child was added.
func (c *CustomerRecord) AddChild(id string) bool {
	if c.HasChild(id) {
		return false
	}
	c.Children = append(c.Children, id)
	return true
}
