package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	documentapp "github.com/lodgehr/backend/internal/application/document"
	onboardingapp "github.com/lodgehr/backend/internal/application/onboarding"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/validation"
	"github.com/lodgehr/backend/internal/infrastructure/cache"
	"github.com/lodgehr/backend/internal/infrastructure/persistence"
	"github.com/lodgehr/backend/internal/infrastructure/rendering"
	"github.com/lodgehr/backend/internal/infrastructure/storage"
	"github.com/lodgehr/backend/internal/interfaces/http/middleware"
	"github.com/lodgehr/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRenderer keeps handler tests free of a headless browser
type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, req *rendering.RenderRequest) (*rendering.RenderResult, error) {
	return &rendering.RenderResult{
		PDFData:   append([]byte("%PDF-stub\n"), []byte(req.HTML)...),
		PageCount: 1,
	}, nil
}

func (stubRenderer) Close() error { return nil }

type apiFixture struct {
	engine *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
		CREATE TABLE onboarding_sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			token TEXT NOT NULL UNIQUE,
			employee_id TEXT NOT NULL,
			property_id TEXT NOT NULL,
			status TEXT NOT NULL,
			current_step_id TEXT,
			completed_steps TEXT DEFAULT '[]',
			step_payloads TEXT DEFAULT '{}',
			prefills TEXT DEFAULT '{}',
			expires_at DATETIME NOT NULL,
			completed_at DATETIME
		)
	`).Error)
	require.NoError(t, db.Exec(`
		CREATE TABLE generated_documents (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			session_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			template_version TEXT NOT NULL,
			rendered_at DATETIME NOT NULL,
			content_hash TEXT NOT NULL,
			status TEXT NOT NULL,
			storage_reference TEXT NOT NULL,
			unmapped_fields TEXT DEFAULT '[]',
			superseded_by TEXT,
			signer_employee_id TEXT,
			signer_name TEXT,
			signed_at DATETIME,
			signer_ip TEXT,
			signature_artifact BLOB,
			attestation_text TEXT
		)
	`).Error)

	registry, err := onboarding.NewStepRegistry(onboarding.DefaultCatalog())
	require.NoError(t, err)
	resolver := onboarding.NewResolver(registry)
	engine, err := validation.NewEngine(validation.DefaultRuleSets())
	require.NoError(t, err)
	templates, err := rendering.NewTemplateStore()
	require.NoError(t, err)

	sessions := persistence.NewGormSessionRepository(db)
	documents := persistence.NewGormDocumentRepository(db)
	dedupe := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = dedupe.Close() })

	sessionService := onboardingapp.NewSessionService(
		sessions, documents, resolver, engine, dedupe, zap.NewNop(), onboardingapp.ServiceConfig{})
	documentService := documentapp.NewDocumentService(
		sessions, documents, resolver,
		templates, rendering.NewTemplateEngine(), rendering.NewFieldMapper(),
		stubRenderer{}, storage.NewMemoryDocumentStore(), zap.NewNop())

	ginEngine := gin.New()
	ginEngine.Use(middleware.RequestID())
	ginEngine.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	r := router.NewRouter(ginEngine)
	r.Register(NewSystemHandler())
	r.Register(NewOnboardingHandler(sessionService))
	r.Register(NewDocumentHandler(documentService))
	r.Setup()

	return &apiFixture{engine: ginEngine}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

// createSession provisions a session over the API and returns its token
func (f *apiFixture) createSession(t *testing.T) string {
	t.Helper()
	w, env := f.do(t, "POST", "/api/v1/sessions", "", gin.H{
		"employee_id": "9f3cd1a4-21d6-44d0-9a2f-57f1f3a2b001",
		"property_id": "9f3cd1a4-21d6-44d0-9a2f-57f1f3a2b002",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.Token)
	return created.Token
}

func personalInfoBody() gin.H {
	return gin.H{"payload": gin.H{
		"first_name":    "Maria",
		"last_name":     "Santos",
		"date_of_birth": "1990-03-14",
		"ssn":           "123-45-6789",
		"email":         "maria@example.com",
		"phone":         "2075551234",
		"address_line1": "12 Harbor St",
		"city":          "Portland",
		"state":         "ME",
		"zip_code":      "04101",
	}}
}

func i9Body() gin.H {
	return gin.H{"payload": gin.H{
		"citizenship_status": "citizen",
		"signature_name":     "Maria Santos",
		"attestation_date":   "2026-08-01",
	}}
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	w, env := f.do(t, "GET", "/api/v1/system/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestCreateSessionReturnsTokenOnce(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	// The session view never repeats the token
	w, env := f.do(t, "GET", "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), token)
	assert.Contains(t, string(env.Data), "NOT_STARTED")
}

func TestCreateSessionRejectsBadBody(t *testing.T) {
	f := newAPIFixture(t)
	w, env := f.do(t, "POST", "/api/v1/sessions", "", gin.H{"employee_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)
	w, env := f.do(t, "GET", "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestUnknownTokenIs404(t *testing.T) {
	f := newAPIFixture(t)
	w, env := f.do(t, "GET", "/api/v1/session", "no-such-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestSaveStepHappyPath(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, env := f.do(t, "PUT", "/api/v1/session/steps/personal-info", token, personalInfoBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "IN_PROGRESS")
	assert.Contains(t, string(env.Data), "personal-info")
}

func TestSaveStepDependencyViolation(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, env := f.do(t, "PUT", "/api/v1/session/steps/i9-section1", token, i9Body())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "DEPENDENCY_NOT_SATISFIED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "missing_steps")
}

func TestSaveStepValidationFailure(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	body := personalInfoBody()
	body["payload"].(gin.H)["ssn"] = "000-12-3456"

	w, env := f.do(t, "PUT", "/api/v1/session/steps/personal-info", token, body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "field_errors")
}

func TestSaveStepUnknownStep(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, env := f.do(t, "PUT", "/api/v1/session/steps/espresso-training", token, gin.H{"payload": gin.H{}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "STEP_NOT_FOUND", env.Error.Code)
}

func TestNextStepGuidesTheEmployee(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, env := f.do(t, "GET", "/api/v1/session/next-step", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "personal-info")
}

func TestPrefillSurfacesSuggestions(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, _ := f.do(t, "PUT", "/api/v1/session/steps/personal-info", token, personalInfoBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// emergency-contact is now the current step; stage suggestions for it
	w, _ = f.do(t, "PUT", "/api/v1/session/steps/emergency-contact/prefill", token, gin.H{
		"suggestions": gin.H{"contact_name": "Jo Santos"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Prefill shows up on the session view for the current step
	w, env := f.do(t, "GET", "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "prefill")
	assert.Contains(t, string(env.Data), "Jo Santos")
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	_, _ = f.do(t, "PUT", "/api/v1/session/steps/personal-info", token, personalInfoBody())
	w, _ := f.do(t, "PUT", "/api/v1/session/steps/i9-section1", token, i9Body())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Generate the I-9 PDF
	w, env := f.do(t, "POST", "/api/v1/session/steps/i9-section1/document", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var doc struct {
		DocumentID string `json:"document_id"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Equal(t, "UNSIGNED", doc.Status)

	// Sign it
	w, env = f.do(t, "POST", "/api/v1/session/documents/"+doc.DocumentID+"/sign", token, gin.H{
		"signer_name": "Maria Santos",
		"artifact":    []byte{0x89, 0x50, 0x4E, 0x47},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "SIGNED")

	// A retried sign is benign: the finalized document comes back
	w, env = f.do(t, "POST", "/api/v1/session/documents/"+doc.DocumentID+"/sign", token, gin.H{
		"signer_name": "Maria Santos",
		"artifact":    []byte{0x89, 0x50, 0x4E, 0x47},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"already_signed":true`)

	// Re-generating over the signed document is also answered with it
	w, env = f.do(t, "POST", "/api/v1/session/steps/i9-section1/document", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), doc.DocumentID)
	assert.Contains(t, string(env.Data), `"already_signed":true`)

	// Download link
	w, env = f.do(t, "GET", "/api/v1/session/documents/"+doc.DocumentID+"/download", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "url")

	// List shows the document
	w, env = f.do(t, "GET", "/api/v1/session/documents", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), doc.DocumentID)
}

func TestGenerateRequiresCompletedStepOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, env := f.do(t, "POST", "/api/v1/session/steps/w4-form/document", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}

func TestSignRejectsMalformedDocumentID(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	w, env := f.do(t, "POST", "/api/v1/session/documents/not-a-uuid/sign", token, gin.H{
		"signer_name": "Maria Santos",
		"artifact":    []byte{0x01},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestSubmitBlockedUntilDocumentsSigned(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	steps := []struct {
		id   string
		body gin.H
	}{
		{"personal-info", personalInfoBody()},
		{"i9-section1", i9Body()},
		{"w4-form", gin.H{"payload": gin.H{
			"filing_status":  "single",
			"multiple_jobs":  false,
			"dependents_amount":        "0",
			"other_dependents_amount":  "0",
			"other_income":   "0",
			"deductions":     "0",
			"extra_withholding": "0",
		}}},
		{"policy-acknowledgment", gin.H{"payload": gin.H{
			"acknowledged":      true,
			"acknowledged_name": "Maria Santos",
		}}},
	}
	for _, step := range steps {
		w, _ := f.do(t, "PUT", "/api/v1/session/steps/"+step.id, token, step.body)
		require.Equal(t, http.StatusOK, w.Code, "step %s: %s", step.id, w.Body.String())
	}

	// With no document signed the session is still in progress
	w, env := f.do(t, "GET", "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "IN_PROGRESS")
	assert.NotContains(t, string(env.Data), "PENDING_REVIEW")

	w, env = f.do(t, "POST", "/api/v1/session/submit", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DOCUMENTS_NOT_SIGNED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "pending_steps")

	// Optional steps remain editable while documents are outstanding
	w, _ = f.do(t, "PUT", "/api/v1/session/steps/direct-deposit", token, gin.H{"payload": gin.H{
		"bank_name":      "Coastal Bank",
		"routing_number": "021000021",
		"account_number": "18572094",
		"account_type":   "checking",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSubmitCompletesAfterSigning(t *testing.T) {
	f := newAPIFixture(t)
	token := f.createSession(t)

	complianceBodies := map[string]gin.H{
		"personal-info": personalInfoBody(),
		"i9-section1":   i9Body(),
		"w4-form": {"payload": gin.H{
			"filing_status":     "single",
			"extra_withholding": "0",
		}},
		"policy-acknowledgment": {"payload": gin.H{
			"acknowledged":      true,
			"acknowledged_name": "Maria Santos",
		}},
	}
	for _, id := range []string{"personal-info", "i9-section1", "w4-form", "policy-acknowledgment"} {
		w, _ := f.do(t, "PUT", "/api/v1/session/steps/"+id, token, complianceBodies[id])
		require.Equal(t, http.StatusOK, w.Code, "step %s: %s", id, w.Body.String())
	}

	for _, id := range []string{"i9-section1", "w4-form", "policy-acknowledgment"} {
		w, env := f.do(t, "POST", "/api/v1/session/steps/"+id+"/document", token, nil)
		require.Equal(t, http.StatusCreated, w.Code, "generate %s: %s", id, w.Body.String())

		var doc struct {
			DocumentID string `json:"document_id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &doc))

		w, _ = f.do(t, "POST", "/api/v1/session/documents/"+doc.DocumentID+"/sign", token, gin.H{
			"signer_name": "Maria Santos",
			"artifact":    []byte{0x89, 0x50, 0x4E, 0x47},
		})
		require.Equal(t, http.StatusOK, w.Code, "sign %s: %s", id, w.Body.String())
	}

	w, env := f.do(t, "POST", "/api/v1/session/submit", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "COMPLETED")
}
