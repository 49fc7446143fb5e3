package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

const msgNoFile = "No file was submitted."

type DocumentInput struct {
	Title    *string
	Category *string
}

// FileUpload is one uploaded file. Name is the display name and falls
// back to Filename when empty.
type FileUpload struct {
	Name        string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Documents resolves every document or file to its parent course before
// consulting the course rule.
type Documents struct {
	base
	blobs BlobStore
}

func (d *Documents) course(ctx context.Context, id string) (model.Course, error) {
	course, err := d.store.GetCourse(ctx, id)
	if err != nil {
		return model.Course{}, fmt.Errorf("load parent course: %w", err)
	}
	return course, nil
}

func (d *Documents) document(ctx context.Context, id string) (model.Document, model.Course, error) {
	if err := checkID(id); err != nil {
		return model.Document{}, model.Course{}, err
	}
	document, err := d.store.GetDocument(ctx, id)
	if err != nil {
		return model.Document{}, model.Course{}, err
	}
	course, err := d.course(ctx, document.CourseID)
	if err != nil {
		return model.Document{}, model.Course{}, err
	}
	return document, course, nil
}

func (d *Documents) check(ctx context.Context, p model.Principal, action policy.Action, course *model.Course) error {
	return d.authorize(ctx, policy.ResourceDocument, action, p, policy.Document(p, action, course))
}

func (d *Documents) List(ctx context.Context, p model.Principal, courseID string) ([]model.Document, error) {
	if err := checkID(courseID); err != nil {
		return nil, err
	}
	course, err := d.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := d.check(ctx, p, policy.ReadList, &course); err != nil {
		return nil, err
	}
	return d.store.ListDocuments(ctx, course.ID)
}

func (d *Documents) Create(ctx context.Context, p model.Principal, courseID string, in DocumentInput) (model.Document, error) {
	if err := checkID(courseID); err != nil {
		return model.Document{}, err
	}
	course, err := d.course(ctx, courseID)
	if err != nil {
		return model.Document{}, err
	}
	if err := d.check(ctx, p, policy.Create, &course); err != nil {
		return model.Document{}, err
	}

	verr := NewValidationError()
	text(verr, "titre", in.Title, true, false, 200)
	category := model.CategoryNotes
	if in.Category != nil {
		parsed, ok := model.ParseDocumentCategory(*in.Category)
		if !ok {
			verr.Add("categorie", fmt.Sprintf("%q is not a valid choice.", *in.Category))
		}
		category = parsed
	}
	if err := verr.Err(); err != nil {
		return model.Document{}, err
	}

	document := model.Document{
		ID:         newID(),
		CourseID:   course.ID,
		Title:      trimmed(in.Title),
		Category:   category,
		AddedAt:    d.timestamp(),
		UploadedBy: p.ID,
	}
	if err := d.store.CreateDocument(ctx, document); err != nil {
		return model.Document{}, err
	}
	return document, nil
}

func (d *Documents) ListFiles(ctx context.Context, p model.Principal, documentID string) ([]model.DocumentFile, error) {
	document, course, err := d.document(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := d.check(ctx, p, policy.ReadList, &course); err != nil {
		return nil, err
	}
	return d.store.ListDocumentFiles(ctx, document.ID)
}

// AddFile stores the upload and attaches it to the document. Content is
// only read once the principal is allowed to write.
func (d *Documents) AddFile(ctx context.Context, p model.Principal, documentID string, upload FileUpload) (model.DocumentFile, error) {
	document, course, err := d.document(ctx, documentID)
	if err != nil {
		return model.DocumentFile{}, err
	}
	if err := d.check(ctx, p, policy.Create, &course); err != nil {
		return model.DocumentFile{}, err
	}

	name := strings.TrimSpace(upload.Name)
	if name == "" {
		name = strings.TrimSpace(upload.Filename)
	}
	verr := NewValidationError()
	if upload.Content == nil {
		verr.Add("fichier", msgNoFile)
	}
	text(verr, "nom", &name, false, true, 200)
	if err := verr.Err(); err != nil {
		return model.DocumentFile{}, err
	}

	key, size, err := d.blobs.Put(ctx, upload.Content)
	if err != nil {
		return model.DocumentFile{}, fmt.Errorf("store upload: %w", err)
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	file := model.DocumentFile{
		ID:          newID(),
		DocumentID:  document.ID,
		BlobKey:     key,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		AddedAt:     d.timestamp(),
		UploadedBy:  p.ID,
	}
	if err := d.store.CreateDocumentFile(ctx, file); err != nil {
		return model.DocumentFile{}, err
	}
	return file, nil
}

// OpenFile returns the file record and its content. The caller closes the
// reader.
func (d *Documents) OpenFile(ctx context.Context, p model.Principal, fileID string) (model.DocumentFile, io.ReadCloser, error) {
	if err := checkID(fileID); err != nil {
		return model.DocumentFile{}, nil, err
	}
	file, err := d.store.GetDocumentFile(ctx, fileID)
	if err != nil {
		return model.DocumentFile{}, nil, err
	}
	_, course, err := d.document(ctx, file.DocumentID)
	if err != nil {
		return model.DocumentFile{}, nil, err
	}
	if err := d.check(ctx, p, policy.ReadOne, &course); err != nil {
		return model.DocumentFile{}, nil, err
	}
	content, err := d.blobs.Open(ctx, file.BlobKey)
	if errors.Is(err, ErrNotFound) {
		return model.DocumentFile{}, nil, ErrNotFound
	}
	if err != nil {
		return model.DocumentFile{}, nil, fmt.Errorf("open upload: %w", err)
	}
	return file, content, nil
}
