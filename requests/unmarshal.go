package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match what the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// UnmarshalAction decodes and validates an action request body.
func UnmarshalAction(data []byte) (webfm.Action, error) {
	var dto ActionRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, webfm.InvalidInputError("decode", "", "malformed request body: "+err.Error())
	}
	if err := validateDTO(&dto); err != nil {
		return nil, err
	}
	return dto.ToAction()
}

// ToAction converts a validated DTO to its action type. An action name
// without a matching type is invalid input.
func (dto *ActionRequestDTO) ToAction() (webfm.Action, error) {
	path := pathutil.Normalize(dto.Path)
	names := dto.names()
	switch webfm.ActionKind(dto.Action) {
	case webfm.ActionRead:
		return webfm.ReadAction{Path: path, ShowHidden: dto.ShowHiddenItems}, nil
	case webfm.ActionSearch:
		return webfm.SearchAction{
			Path:          path,
			SearchString:  dto.SearchString,
			ShowHidden:    dto.ShowHiddenItems,
			CaseSensitive: dto.CaseSensitive,
		}, nil
	case webfm.ActionCreate:
		return webfm.CreateAction{Path: path, Name: dto.Name}, nil
	case webfm.ActionDelete:
		return webfm.DeleteAction{Path: path, Names: names}, nil
	case webfm.ActionRename:
		return webfm.RenameAction{Path: path, Name: dto.Name, NewName: dto.NewName}, nil
	case webfm.ActionDetails:
		return webfm.DetailsAction{Path: path, Names: names}, nil
	case webfm.ActionCopy:
		return webfm.CopyAction{Path: path, Names: names, TargetPath: pathutil.Normalize(dto.TargetPath)}, nil
	case webfm.ActionMove:
		return webfm.MoveAction{
			Path:        path,
			Names:       names,
			TargetPath:  pathutil.Normalize(dto.TargetPath),
			RenameFiles: dto.RenameFiles,
		}, nil
	default:
		return nil, webfm.InvalidInputError("decode", path, fmt.Sprintf("unsupported action %q", dto.Action))
	}
}

// names prefers the explicit names list and falls back to the data entries.
func (dto *ActionRequestDTO) names() []string {
	if len(dto.Names) > 0 {
		return dto.Names
	}
	return entryNames(dto.Data)
}

// UnmarshalDownload decodes and validates a downloadInput value and returns
// the client paths to send.
func UnmarshalDownload(data []byte) ([]string, error) {
	var dto DownloadRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, webfm.InvalidInputError("decode", "", "malformed download input: "+err.Error())
	}
	if err := validateDTO(&dto); err != nil {
		return nil, err
	}
	names := dto.Names
	if len(names) == 0 {
		names = entryNames(dto.Data)
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		if err := pathutil.ValidName(name); err != nil {
			return nil, webfm.InvalidInputError("download", pathutil.Normalize(dto.Path), err.Error())
		}
		paths = append(paths, pathutil.Join(dto.Path, name))
	}
	return paths, nil
}

// UnmarshalUpload reads and validates the upload form fields.
func UnmarshalUpload(form url.Values) (*UploadRequestDTO, error) {
	dto := &UploadRequestDTO{
		Action:          form.Get("action"),
		Path:            pathutil.Normalize(form.Get("path")),
		CancelUploading: form.Get("cancel-uploading"),
	}
	if v := form.Get("overwrite"); v != "" {
		overwrite, err := strconv.ParseBool(v)
		if err != nil {
			return nil, webfm.InvalidInputError("validate", "", "overwrite must be a boolean")
		}
		dto.Overwrite = overwrite
	}
	if err := validateDTO(dto); err != nil {
		return nil, err
	}
	return dto, nil
}

func entryNames(entries []EntryDTO) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func validateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return webfm.InvalidInputError("validate", "", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return webfm.InvalidInputError("validate", "", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// drop the struct name: "ActionRequestDTO.data[0].name" -> "data[0].name"
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
