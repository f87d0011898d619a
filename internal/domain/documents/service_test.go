package documents

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Document Repository --

type mockDocumentRepo struct {
	docs map[uuid.UUID]*Document
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[uuid.UUID]*Document)}
}

func (m *mockDocumentRepo) Create(_ context.Context, d *Document) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.docs[d.ID] = d
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id uuid.UUID) (*Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockDocumentRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	var result []*Document
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func newTestService(t *testing.T) (*Service, *mockDocumentRepo) {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	repo := newMockDocumentRepo()
	return NewService(repo, store), repo
}

func TestUploadAndOpen(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := uuid.New()
	payload := "fake pdf bytes"

	d, err := svc.Upload(context.Background(), ownerID, "analyse.pdf", "application/pdf",
		int64(len(payload)), strings.NewReader(payload))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if d.FileName != "analyse.pdf" {
		t.Errorf("unexpected file name %s", d.FileName)
	}
	if d.StoredName == "analyse.pdf" || d.StoredName == "" {
		t.Error("stored name must be opaque")
	}
	if !strings.HasSuffix(d.StoredName, ".pdf") {
		t.Errorf("stored name should keep the extension, got %s", d.StoredName)
	}
	if d.SizeBytes != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), d.SizeBytes)
	}

	got, rc, err := svc.Open(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		t.Fatalf("read: %v", err)
	}
	if buf.String() != payload {
		t.Error("payload mismatch")
	}
	if got.ID != d.ID {
		t.Error("metadata mismatch")
	}
}

func TestUpload_PathTraversalNameNeutralized(t *testing.T) {
	svc, _ := newTestService(t)

	d, err := svc.Upload(context.Background(), uuid.New(), "../../etc/passwd.png", "image/png",
		4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if strings.Contains(d.FileName, "/") || strings.Contains(d.StoredName, "/") {
		t.Errorf("names must not carry path separators: %s / %s", d.FileName, d.StoredName)
	}
}

func TestUpload_RejectsContentType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), uuid.New(), "run.exe", "application/x-msdownload",
		4, strings.NewReader("data"))
	if err == nil {
		t.Fatal("expected error for disallowed content type")
	}
}

func TestUpload_RejectsOversize(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), uuid.New(), "big.pdf", "application/pdf",
		maxDocumentSize+1, strings.NewReader("data"))
	if err == nil {
		t.Fatal("expected error for oversize file")
	}
}

func TestDelete_RemovesBlob(t *testing.T) {
	svc, repo := newTestService(t)
	ownerID := uuid.New()

	d, err := svc.Upload(context.Background(), ownerID, "scan.png", "image/png",
		4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	stored := d.StoredName

	if err := svc.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), d.ID); err == nil {
		t.Error("metadata should be gone")
	}
	if _, err := svc.blobs.Open(stored); err == nil {
		t.Error("blob should be gone")
	}
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	if _, err := store.Open("../secrets"); err == nil {
		t.Error("expected error for traversal in Open")
	}
	if err := store.Remove("../secrets"); err == nil {
		t.Error("expected error for traversal in Remove")
	}
}

func TestSanitizeExt(t *testing.T) {
	cases := map[string]string{
		".pdf":        ".pdf",
		".PNG":        ".png",
		"":            "",
		".p/df":       "",
		".reallylong": "",
		"pdf":         "",
	}
	for in, want := range cases {
		if got := sanitizeExt(in); got != want {
			t.Errorf("sanitizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
