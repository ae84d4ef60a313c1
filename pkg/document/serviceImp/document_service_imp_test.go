package serviceImp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/database"
	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/ai"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/repositoryImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/storage"
	entryRepo "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repositoryImp"
	entrySvc "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/events"
)

type fixture struct {
	db  *gorm.DB
	s   *Svc
	rec *events.Recorder
	dir string
}

func setup(t *testing.T, cfg Config) fixture {
	t.Helper()
	db, err := database.OpenMemory(t.Name(), nil)
	require.NoError(t, err)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	require.NoError(t, err)
	rec := &events.Recorder{}
	entries := entrySvc.New(entryRepo.New(db), nil, nil, nil)
	return fixture{db: db, s: New(repositoryImp.New(db), store, nil, ai.NewMock(), entries, rec, cfg, nil), rec: rec, dir: dir}
}

const tenderText = "Harbour renewal study\n\nThe municipality needs a co-design process for the ferry terminal.\nContact: kari@example.no"

func upload(t *testing.T, f fixture, name, body string) *entities.Document {
	t.Helper()
	d, existing, err := f.s.Upload(context.Background(), name, strings.NewReader(body), "ann@halogen.no")
	require.NoError(t, err)
	require.False(t, existing)
	return d
}

func TestUpload_ParsesAndDedupes(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()

	d := upload(t, f, "../../brief.md", tenderText)
	assert.Equal(t, "brief.md", d.Filename)
	assert.Equal(t, "text/markdown", d.MimeType)
	assert.Equal(t, entities.DocStatusParsed, d.Status)
	assert.Equal(t, len([]rune(tenderText)), d.TextChars)
	assert.Len(t, d.SHA256, 64)
	assert.True(t, strings.HasSuffix(d.StorageKey, ".md"))
	assert.Equal(t, []string{events.DocumentUploaded}, f.rec.Subjects())

	again, existing, err := f.s.Upload(ctx, "copy.md", strings.NewReader(tenderText), "bob@halogen.no")
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, d.ID, again.ID)
	assert.Len(t, f.rec.Events, 1)

	rc, got, err := f.s.Open(d.ID)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, tenderText, string(b))
	assert.Equal(t, d.ID, got.ID)

	list, err := f.s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Text)
}

func TestUpload_Rejections(t *testing.T) {
	f := setup(t, Config{MaxUploadBytes: 10})
	ctx := context.Background()

	_, _, err := f.s.Upload(ctx, "big.txt", strings.NewReader(strings.Repeat("x", 11)), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperr.StatusOf(err))

	_, _, err = f.s.Upload(ctx, "empty.txt", strings.NewReader(""), "")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))

	_, _, err = f.s.Upload(ctx, "  ", strings.NewReader("x"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
}

func TestUpload_UnsupportedIsStoredAsFailed(t *testing.T) {
	f := setup(t, Config{})
	d := upload(t, f, "tool.exe", "MZ binary")
	assert.Equal(t, entities.DocStatusFailed, d.Status)
	assert.Contains(t, d.Error, "unsupported")

	_, err := f.s.Summarize(context.Background(), d.ID, "project")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
}

func TestSummarize(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()
	d := upload(t, f, "brief.txt", tenderText)

	sugg, err := f.s.Summarize(ctx, d.ID, " Person ")
	require.NoError(t, err)
	assert.Equal(t, "Harbour renewal study", sugg.Title)
	assert.Equal(t, "kari@example.no", sugg.Email)

	_, err = f.s.Summarize(ctx, d.ID, "vendor")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
	_, err = f.s.Summarize(ctx, 999, "project")
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestSummarizeAndCreate_SetsSourceDocument(t *testing.T) {
	f := setup(t, Config{})
	d := upload(t, f, "brief.txt", tenderText)

	e, err := f.s.SummarizeAndCreate(context.Background(), d.ID, "project", "ann@halogen.no")
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, "project", e.Category)
	require.NotNil(t, e.SourceDocumentID)
	assert.Equal(t, d.ID, *e.SourceDocumentID)
	assert.Equal(t, "ann@halogen.no", e.CreatedBy)

	require.NoError(t, f.s.Delete(context.Background(), d.ID))
	var stored entities.KnowledgeEntry
	require.NoError(t, f.db.First(&stored, e.ID).Error)
	assert.Nil(t, stored.SourceDocumentID, "entry survives with the reference cleared")
}

func TestSummarizeBatch(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()
	var ids []uint
	for i, body := range []string{"First method\nsteps", "Second method\nmore steps", "Third\nx"} {
		ids = append(ids, upload(t, f, "m"+string(rune('a'+i))+".txt", body).ID)
	}
	bad := upload(t, f, "bin.exe", "MZ").ID
	ids = append(ids, bad, 12345)

	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	res, err := f.s.SummarizeBatch(ctx, ids, "method", true, "ann@halogen.no")
	require.NoError(t, err)
	require.Len(t, res, len(ids))
	for i, r := range res[:3] {
		assert.Equal(t, ids[i], r.DocumentID)
		assert.Empty(t, r.Error)
		require.NotNil(t, r.Entry)
		assert.Equal(t, "method", r.Entry.Category)
	}
	assert.NotEmpty(t, res[3].Error)
	assert.Contains(t, res[4].Error, "not found")

	var n int64
	require.NoError(t, f.db.Model(&entities.KnowledgeEntry{}).Count(&n).Error)
	assert.EqualValues(t, 3, n)

	_, err = f.s.SummarizeBatch(ctx, nil, "method", false, "")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
	_, err = f.s.SummarizeBatch(ctx, ids, "vendor", false, "")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
}

func TestDelete_RemovesObject(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()
	d := upload(t, f, "a.txt", "alpha")
	an := entities.TenderAnalysis{DocumentID: &d.ID, Title: "Tender", Status: entities.AnalysisAnalyzed}
	require.NoError(t, f.db.Create(&an).Error)

	require.NoError(t, f.s.Delete(ctx, d.ID))
	var stored entities.TenderAnalysis
	require.NoError(t, f.db.First(&stored, an.ID).Error)
	assert.Nil(t, stored.DocumentID, "analysis survives with the reference cleared")

	_, err := f.s.Get(d.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	_, _, err = f.s.Open(d.ID)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(f.s.Delete(ctx, d.ID)))
}

func TestHostAllowed(t *testing.T) {
	allow := []string{"halogen.no", "*.regjeringen.no"}
	assert.True(t, hostAllowed("halogen.no", allow))
	assert.True(t, hostAllowed("www.Halogen.no", allow))
	assert.True(t, hostAllowed("www.regjeringen.no", allow))
	assert.False(t, hostAllowed("evilhalogen.no", allow))
	assert.False(t, hostAllowed("halogen.no", nil))
}

const article = `<html><head><title>Harbour case study</title></head><body>
<nav>Menu</nav><article><h1>Harbour case study</h1>
<p>The ferry terminal project ran for eighteen months and involved residents, commuters and the port authority in a series of co-design workshops.</p>
<p>Prototypes of wayfinding and waiting areas were tested on site before the final design was chosen, which cut average transfer times considerably.</p>
</article><footer>Contact</footer></body></html>`

func TestIngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/case":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(article))
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("plain notes"))
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	host := mustHost(t, srv.URL)

	f := setup(t, Config{AllowedDomains: []string{host}})
	ctx := context.Background()

	d, existing, err := f.s.IngestURL(ctx, srv.URL+"/case", "ann@halogen.no")
	require.NoError(t, err)
	assert.False(t, existing)
	assert.Equal(t, entities.DocStatusParsed, d.Status)
	assert.Equal(t, srv.URL+"/case", d.SourceURL)
	assert.Equal(t, "Harbour case study.html", d.Filename)
	text, err := f.s.Text(d.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "ferry terminal")
	assert.NotContains(t, text, "Menu")

	d, _, err = f.s.IngestURL(ctx, srv.URL+"/notes.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", d.Filename)

	_, _, err = f.s.IngestURL(ctx, srv.URL+"/image", "")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
	_, _, err = f.s.IngestURL(ctx, srv.URL+"/missing", "")
	assert.Equal(t, http.StatusBadGateway, apperr.StatusOf(err))
	_, _, err = f.s.IngestURL(ctx, "ftp://"+host+"/x", "")
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))

	blocked := setup(t, Config{AllowedDomains: []string{"halogen.no"}})
	_, _, err = blocked.s.IngestURL(ctx, srv.URL+"/case", "")
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
}

func TestMainText_Fallback(t *testing.T) {
	title, text, err := mainText([]byte(article))
	require.NoError(t, err)
	assert.Equal(t, "Harbour case study", title)
	assert.True(t, strings.HasPrefix(text, "Harbour case study\nThe ferry terminal"))
	assert.NotContains(t, text, "Menu")
}

func mustHost(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Hostname()
}
