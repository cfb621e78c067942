// Package topics holds the static topic tree the quizzes are drawn from.
package topics

// Branch is one node of the topic tree. Leaf branches have no subbranches.
type Branch struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Subbranches []Branch `yaml:"subbranches,omitempty" json:"subbranches,omitempty"`
}

// Tree is an indexed set of main branches.
type Tree struct {
	branches []Branch
	byID     map[string]*Branch
}

// NewTree indexes the given main branches. Nodes without an ID get one
// slugged from their title.
func NewTree(branches []Branch) *Tree {
	t := &Tree{
		branches: branches,
		byID:     make(map[string]*Branch),
	}
	for i := range t.branches {
		t.index(&t.branches[i])
	}
	return t
}

func (t *Tree) index(b *Branch) {
	if b.ID == "" {
		b.ID = Slugify(b.Title)
	}
	t.byID[b.ID] = b
	for i := range b.Subbranches {
		t.index(&b.Subbranches[i])
	}
}

// Branches returns the main branches in declaration order.
func (t *Tree) Branches() []Branch {
	return t.branches
}

// Find returns the branch with the given ID.
func (t *Tree) Find(id string) (Branch, bool) {
	b, ok := t.byID[id]
	if !ok {
		return Branch{}, false
	}
	return *b, true
}

// QuizTopics returns the first-level subbranches of every main branch; these
// are the titles the quiz screen offers.
func (t *Tree) QuizTopics() []Branch {
	var out []Branch
	for _, b := range t.branches {
		out = append(out, b.Subbranches...)
	}
	return out
}
