package requests

// ActionRequestDTO is the JSON body of POST /file-manager/actions.
//
// Fields beyond action and path depend on the action:
//
//	read     showHiddenItems
//	search   searchString, showHiddenItems, caseSensitive
//	create   name
//	delete   names
//	rename   name, newName
//	details  names (or data)
//	copy     names, targetPath
//	move     names, targetPath, renameFiles
type ActionRequestDTO struct {
	Action          string     `json:"action" validate:"required,oneof=read search create delete rename details copy move"`
	Path            string     `json:"path"` // Defaults to "/"
	ShowHiddenItems bool       `json:"showHiddenItems,omitempty"`
	SearchString    string     `json:"searchString,omitempty"`
	CaseSensitive   bool       `json:"caseSensitive,omitempty"`
	Name            string     `json:"name,omitempty" validate:"required_if=Action create,required_if=Action rename"`
	NewName         string     `json:"newName,omitempty" validate:"required_if=Action rename"`
	Names           []string   `json:"names,omitempty" validate:"required_if=Action delete,required_if=Action copy,required_if=Action move"`
	TargetPath      string     `json:"targetPath,omitempty" validate:"required_if=Action copy,required_if=Action move"`
	RenameFiles     []string   `json:"renameFiles,omitempty"`
	Data            []EntryDTO `json:"data,omitempty" validate:"dive"`
}

// EntryDTO is an entry echoed back by file manager clients. Only the name is
// used; the rest is accepted and ignored.
type EntryDTO struct {
	Name       string `json:"name" validate:"required"`
	Path       string `json:"path,omitempty"`
	FilterPath string `json:"filterPath,omitempty"`
	IsFile     bool   `json:"isFile,omitempty"`
}

// DownloadRequestDTO is the JSON carried in the downloadInput form field of
// POST /file-manager/download.
type DownloadRequestDTO struct {
	Path  string     `json:"path"`
	Names []string   `json:"names,omitempty" validate:"required_without=Data"`
	Data  []EntryDTO `json:"data,omitempty" validate:"required_without=Names,dive"`
}

// UploadRequestDTO holds the non-file fields of the multipart form posted to
// /file-manager/upload.
type UploadRequestDTO struct {
	Action          string `form:"action" validate:"required,oneof=save remove"`
	Path            string `form:"path"`
	CancelUploading string `form:"cancel-uploading" validate:"required_if=Action remove"`
	Overwrite       bool   `form:"overwrite"`
}
