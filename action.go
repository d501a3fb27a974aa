package webfm

// ActionKind names one of the file manager actions on the wire.
type ActionKind string

const (
	ActionRead    ActionKind = "read"
	ActionSearch  ActionKind = "search"
	ActionCreate  ActionKind = "create"
	ActionDelete  ActionKind = "delete"
	ActionRename  ActionKind = "rename"
	ActionDetails ActionKind = "details"
	ActionCopy    ActionKind = "copy"
	ActionMove    ActionKind = "move"
)

// ActionKinds lists every supported action.
var ActionKinds = []ActionKind{
	ActionRead, ActionSearch, ActionCreate, ActionDelete,
	ActionRename, ActionDetails, ActionCopy, ActionMove,
}

// Action is a validated file manager request. The set of implementations is
// closed; callers route an Action with Dispatch.
type Action interface {
	Kind() ActionKind
	// Dispatch calls the ActionHandler method matching the concrete action.
	Dispatch(h ActionHandler) (*Result, error)
	sealed()
}

// ActionHandler has one method per action. Adding an action adds a method
// here, so every handler must be updated before the tree compiles again.
type ActionHandler interface {
	Read(a ReadAction) (*Result, error)
	Search(a SearchAction) (*Result, error)
	Create(a CreateAction) (*Result, error)
	Delete(a DeleteAction) (*Result, error)
	Rename(a RenameAction) (*Result, error)
	Details(a DetailsAction) (*Result, error)
	Copy(a CopyAction) (*Result, error)
	Move(a MoveAction) (*Result, error)
}

// ReadAction lists the entries of Path.
type ReadAction struct {
	Path       string
	ShowHidden bool
}

// SearchAction lists the entries of Path whose name contains SearchString.
type SearchAction struct {
	Path          string
	SearchString  string
	ShowHidden    bool
	CaseSensitive bool
}

// CreateAction makes the directory Path/Name.
type CreateAction struct {
	Path string
	Name string
}

// DeleteAction removes each of Names from Path.
type DeleteAction struct {
	Path  string
	Names []string
}

// RenameAction renames Path/Name to Path/NewName.
type RenameAction struct {
	Path    string
	Name    string
	NewName string
}

// DetailsAction summarizes one or more entries of Path.
type DetailsAction struct {
	Path  string
	Names []string
}

// CopyAction copies each of Names from Path into TargetPath.
type CopyAction struct {
	Path       string
	Names      []string
	TargetPath string
}

// MoveAction moves each of Names from Path into TargetPath. Names listed in
// RenameFiles are moved under a free duplicate name instead of being
// reported as conflicts.
type MoveAction struct {
	Path        string
	Names       []string
	TargetPath  string
	RenameFiles []string
}

func (ReadAction) Kind() ActionKind    { return ActionRead }
func (SearchAction) Kind() ActionKind  { return ActionSearch }
func (CreateAction) Kind() ActionKind  { return ActionCreate }
func (DeleteAction) Kind() ActionKind  { return ActionDelete }
func (RenameAction) Kind() ActionKind  { return ActionRename }
func (DetailsAction) Kind() ActionKind { return ActionDetails }
func (CopyAction) Kind() ActionKind    { return ActionCopy }
func (MoveAction) Kind() ActionKind    { return ActionMove }

func (a ReadAction) Dispatch(h ActionHandler) (*Result, error)    { return h.Read(a) }
func (a SearchAction) Dispatch(h ActionHandler) (*Result, error)  { return h.Search(a) }
func (a CreateAction) Dispatch(h ActionHandler) (*Result, error)  { return h.Create(a) }
func (a DeleteAction) Dispatch(h ActionHandler) (*Result, error)  { return h.Delete(a) }
func (a RenameAction) Dispatch(h ActionHandler) (*Result, error)  { return h.Rename(a) }
func (a DetailsAction) Dispatch(h ActionHandler) (*Result, error) { return h.Details(a) }
func (a CopyAction) Dispatch(h ActionHandler) (*Result, error)    { return h.Copy(a) }
func (a MoveAction) Dispatch(h ActionHandler) (*Result, error)    { return h.Move(a) }

func (ReadAction) sealed()    {}
func (SearchAction) sealed()  {}
func (CreateAction) sealed()  {}
func (DeleteAction) sealed()  {}
func (RenameAction) sealed()  {}
func (DetailsAction) sealed() {}
func (CopyAction) sealed()    {}
func (MoveAction) sealed()    {}
