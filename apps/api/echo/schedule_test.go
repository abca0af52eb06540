package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/org"
	"github.com/trezcool/ratiba/core/schedule"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type testApp struct {
	server   Server
	conf     *core.Config
	schedule *schedule.Service
	org      *org.Service
	ids      testOrgIDs
}

type testOrgIDs struct {
	inst, course, class, batch string
}

const testTenant = "acme"

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		TestMode:           true,
		AppName:            "Ratiba",
		SecretKey:          []byte("secret"),
		JWTExpirationDelta: 10 * time.Minute,
	}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	orgSvc := org.NewService(inmemdb.NewOrgRepository(db), validate)
	scheduleSvc := schedule.NewService(inmemdb.NewScheduleRepository(db), orgSvc, nil, validate, conf)

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{},
		ScheduleSvc:    scheduleSvc,
		OrgSvc:         orgSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	app := &testApp{server: srv, conf: conf, schedule: scheduleSvc, org: orgSvc}
	app.seedOrg(t)
	return app
}

type testLogger struct{}

func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func (app *testApp) seedOrg(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	inst, err := app.org.CreateInstitution(ctx, testTenant, org.NewInstitution{Name: "Tumaini High"})
	if err != nil {
		t.Fatalf("seedOrg() failed: %v", err)
	}
	course, err := app.org.CreateCourse(ctx, testTenant, org.NewCourse{InstitutionID: inst.ID, Name: "Sciences"})
	if err != nil {
		t.Fatalf("seedOrg() failed: %v", err)
	}
	class, err := app.org.CreateClass(ctx, testTenant, org.NewClass{CourseID: course.ID, Name: "Form 4"})
	if err != nil {
		t.Fatalf("seedOrg() failed: %v", err)
	}
	batch, err := app.org.CreateBatch(ctx, testTenant, org.NewBatch{ClassID: class.ID, Name: "4 East"})
	if err != nil {
		t.Fatalf("seedOrg() failed: %v", err)
	}
	app.ids = testOrgIDs{inst: inst.ID, course: course.ID, class: class.ID, batch: batch.ID}
}

func (app *testApp) token(t *testing.T, admin bool) string {
	t.Helper()
	claims := NewTenantClaims(app.conf, testTenant, "tester", admin)
	token, err := GenerateToken(app.conf, claims)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("request() failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode() failed: %v; body: %s", err, rec.Body.String())
	}
}

func validGridBody() map[string]interface{} {
	return map[string]interface{}{
		"working_days":    []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		"periods_per_day": 8,
		"breaks": []map[string]interface{}{
			{"id": "b1", "name": "Lunch", "after_period": 4, "duration_minutes": 45},
		},
	}
}

func (app *testApp) blockBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":       name,
		"block_type": "exam",
		"scope_type": "class",
		"scope_id":   app.ids.class,
		"strength":   "hard",
		"date_type":  "fixed",
		"dates":      []string{"2025-02-10"},
		"time_type":  "full_day",
	}
}

func TestCalendarGridAPI(t *testing.T) {
	app := setup(t)
	admin := app.token(t, true)
	reader := app.token(t, false)

	t.Run("requires auth", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/calendar-grid", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want 401", rec.Code)
		}
		var body httpErr
		decode(t, rec, &body)
		assert.Equal(t, errMissingToken, body)
	})

	t.Run("upsert requires admin", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/v1/calendar-grid", reader, validGridBody())
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})

	t.Run("not found before configuration", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/calendar-grid", reader, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want 404", rec.Code)
		}
	})

	t.Run("upsert then retrieve", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/v1/calendar-grid", admin, validGridBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}

		rec = app.request(t, http.MethodGet, "/v1/calendar-grid", reader, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200", rec.Code)
		}
		var grid schedule.CalendarGrid
		decode(t, rec, &grid)
		if grid.PeriodsPerDay != 8 || len(grid.WorkingDays) != 5 {
			t.Errorf("grid = %+v", grid)
		}
	})

	t.Run("invalid grid is a 400 with field errors", func(t *testing.T) {
		body := validGridBody()
		body["periods_per_day"] = 3
		rec := app.request(t, http.MethodPut, "/v1/calendar-grid", admin, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestTermsAPI(t *testing.T) {
	app := setup(t)
	admin := app.token(t, true)

	termBody := map[string]interface{}{
		"name":          "Term 1",
		"academic_year": "2025",
		"start_date":    "2025-01-06",
		"end_date":      "2025-04-04",
	}

	rec := app.request(t, http.MethodPost, "/v1/terms", admin, termBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	var term schedule.Term
	decode(t, rec, &term)

	t.Run("overlap rejected", func(t *testing.T) {
		overlap := map[string]interface{}{
			"name":          "Term 1 bis",
			"academic_year": "2025",
			"start_date":    "2025-03-01",
			"end_date":      "2025-06-01",
		}
		rec := app.request(t, http.MethodPost, "/v1/terms", admin, overlap)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("referenced term delete is a 409 with block ids", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/v1/calendar-grid", admin, validGridBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("grid code = %d; body: %s", rec.Code, rec.Body.String())
		}

		blockBody := app.blockBody("Mock Exams")
		blockBody["term_id"] = term.ID
		rec = app.request(t, http.MethodPost, "/v1/blocks", admin, blockBody)
		if rec.Code != http.StatusCreated {
			t.Fatalf("block code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var block schedule.Block
		decode(t, rec, &block)

		rec = app.request(t, http.MethodDelete, "/v1/terms/"+term.ID, admin, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("delete code = %d, want 409; body: %s", rec.Code, rec.Body.String())
		}
		var conflict struct {
			Error      string   `json:"error"`
			References []string `json:"references"`
		}
		decode(t, rec, &conflict)
		assert.Equal(t, []string{block.ID}, conflict.References)
	})

	t.Run("unknown term is a 404", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/terms/nope", admin, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want 404", rec.Code)
		}
	})
}

func TestBlocksAPI(t *testing.T) {
	app := setup(t)
	admin := app.token(t, true)
	reader := app.token(t, false)

	rec := app.request(t, http.MethodPut, "/v1/calendar-grid", admin, validGridBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("grid code = %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = app.request(t, http.MethodPost, "/v1/blocks", admin, app.blockBody("Mock Exams"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	var block schedule.Block
	decode(t, rec, &block)
	if !block.IsActive {
		t.Error("block should default to active")
	}

	t.Run("create requires admin", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/blocks", reader, app.blockBody("Nope"))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})

	t.Run("unknown scope is a 400", func(t *testing.T) {
		body := app.blockBody("Ghost")
		body["scope_id"] = "nope"
		rec := app.request(t, http.MethodPost, "/v1/blocks", admin, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("check-conflicts reports without saving", func(t *testing.T) {
		candidate := app.blockBody("Swim Meet")
		candidate["scope_type"] = "batch"
		candidate["scope_id"] = app.ids.batch
		candidate["strength"] = "soft"
		rec := app.request(t, http.MethodPost, "/v1/blocks/check-conflicts", reader, candidate)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		var reports []schedule.ConflictReport
		decode(t, rec, &reports)
		if len(reports) != 1 || reports[0].Severity != schedule.SeverityError {
			t.Errorf("reports = %+v, want one error report", reports)
		}

		rec = app.request(t, http.MethodGet, "/v1/blocks", reader, nil)
		var blocks []schedule.Block
		decode(t, rec, &blocks)
		if len(blocks) != 1 {
			t.Errorf("blocks = %d, want 1; check-conflicts must not save", len(blocks))
		}
	})

	t.Run("filtering", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/blocks?strength=hard&search=mock", reader, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var blocks []schedule.Block
		decode(t, rec, &blocks)
		if len(blocks) != 1 || blocks[0].ID != block.ID {
			t.Errorf("filtered blocks = %+v", blocks)
		}

		rec = app.request(t, http.MethodGet, "/v1/blocks?strength=soft", reader, nil)
		decode(t, rec, &blocks)
		if len(blocks) != 0 {
			t.Errorf("soft blocks = %+v, want none", blocks)
		}
	})

	t.Run("toggle active", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/blocks/"+block.ID+"/toggle-active", admin, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var toggled schedule.Block
		decode(t, rec, &toggled)
		if toggled.IsActive {
			t.Error("block should be inactive after toggle")
		}
	})

	t.Run("delete then 404", func(t *testing.T) {
		rec := app.request(t, http.MethodDelete, "/v1/blocks/"+block.ID, admin, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete code = %d, want 204", rec.Code)
		}
		rec = app.request(t, http.MethodGet, "/v1/blocks/"+block.ID, reader, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("get code = %d, want 404", rec.Code)
		}
	})
}

func TestWeekViewAPI(t *testing.T) {
	app := setup(t)
	admin := app.token(t, true)
	reader := app.token(t, false)

	rec := app.request(t, http.MethodPut, "/v1/calendar-grid", admin, validGridBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("grid code = %d; body: %s", rec.Code, rec.Body.String())
	}
	rec = app.request(t, http.MethodPost, "/v1/blocks", admin, app.blockBody("Mock Exams"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("block code = %d; body: %s", rec.Code, rec.Body.String())
	}

	t.Run("happy path", func(t *testing.T) {
		rec := app.request(t, http.MethodGet,
			"/v1/timetable/week?scope_type=class&scope_id="+app.ids.class+"&week_start=2025-02-10", reader, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var view schedule.WeekView
		decode(t, rec, &view)
		if len(view.Days) != 7 {
			t.Fatalf("days = %d, want 7", len(view.Days))
		}
		if !view.Days[0].Working || view.Days[0].Slots[0].Status != schedule.SlotOccupied {
			t.Errorf("monday = %+v, want occupied", view.Days[0])
		}
		if view.Days[6].Working {
			t.Error("sunday should not be a working day")
		}
	})

	t.Run("bad week start", func(t *testing.T) {
		rec := app.request(t, http.MethodGet,
			"/v1/timetable/week?scope_type=class&scope_id="+app.ids.class+"&week_start=soon", reader, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400", rec.Code)
		}
	})
}

func TestOrgAPI(t *testing.T) {
	app := setup(t)
	admin := app.token(t, true)
	reader := app.token(t, false)

	t.Run("query institutions", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/org/institutions", reader, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var insts []org.Institution
		decode(t, rec, &insts)
		if len(insts) != 1 || insts[0].Name != "Tumaini High" {
			t.Errorf("institutions = %+v", insts)
		}
	})

	t.Run("create course under unknown institution", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/org/courses", admin,
			map[string]interface{}{"institution_id": "nope", "name": "Arts"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("create requires admin", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/org/batches", reader,
			map[string]interface{}{"class_id": app.ids.class, "name": "4 West"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})
}
