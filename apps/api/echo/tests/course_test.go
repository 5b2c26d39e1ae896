package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echoapi "github.com/raphco/materia/apps/api/echo"
	"github.com/raphco/materia/core/course"
	"github.com/raphco/materia/core/user"
	testutil "github.com/raphco/materia/tests"
)

func unmarshalCourse(t *testing.T, rec *httptest.ResponseRecorder) course.Course {
	t.Helper()
	var c course.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v; body %s", err, rec.Body.String())
	}
	return c
}

func Test_courseApi_crud(t *testing.T) {
	resetDB(t)

	ctx := context.Background()
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	teacherToken := getToken(t, teacher)

	do := func(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
		t.Helper()
		req, rec := newAuthRequest(method, path, teacherToken, marchallObj(t, body))
		app.ServeHTTP(rec, req)
		return rec
	}

	var c course.Course

	t.Run("create", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/courses", course.CourseFields{
			Title:       " Algebra ", // whitespace is trimmed
			IconKey:     "math",
			AudienceTag: course.AudienceTag{Years: []int{7}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c = unmarshalCourse(t, rec)
		if c.ID == "" {
			t.Error("empty course ID")
		}
		if c.Title != "Algebra" {
			t.Errorf("title = %q; want %q", c.Title, "Algebra")
		}
		if c.OwnerID != teacher.ID || c.OwnerName != teacher.Name {
			t.Errorf("owner = %s/%s; want %s/%s", c.OwnerID, c.OwnerName, teacher.ID, teacher.Name)
		}
		if len(c.Content) != 0 {
			t.Errorf("new course content not empty: %+v", c.Content)
		}
	})

	t.Run("title is required", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/courses", course.CourseFields{})
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	var mod course.Module

	t.Run("add module", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/courses/"+c.ID+"/modules", course.ModuleFields{Title: "Unit 1"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c = unmarshalCourse(t, rec)
		if len(c.Content) != 1 {
			t.Fatalf("len(Content) = %d; want 1", len(c.Content))
		}
		mod = c.Content[0]
		if mod.ID == "" || mod.Title != "Unit 1" {
			t.Errorf("unexpected module: %+v", mod)
		}
	})

	var cat course.Category

	t.Run("add category", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/courses/"+c.ID+"/modules/"+mod.ID+"/categories",
			course.CategoryFields{Title: "Lessons"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c = unmarshalCourse(t, rec)
		if len(c.Content[0].Categories) != 1 {
			t.Fatalf("len(Categories) = %d; want 1", len(c.Content[0].Categories))
		}
		cat = c.Content[0].Categories[0]
	})

	var mat course.Material

	t.Run("add link material", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/courses/"+c.ID+"/categories/"+cat.ID+"/materials",
			course.MaterialFields{Title: "Syllabus", Kind: course.KindLink, Locator: "https://example.com/syllabus"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c = unmarshalCourse(t, rec)
		mats := c.Content[0].Categories[0].Materials
		if len(mats) != 1 {
			t.Fatalf("len(Materials) = %d; want 1", len(mats))
		}
		mat = mats[0]
		if mat.Kind != course.KindLink || mat.Locator != "https://example.com/syllabus" {
			t.Errorf("unexpected material: %+v", mat)
		}
	})

	t.Run("a link material requires a URL", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/courses/"+c.ID+"/categories/"+cat.ID+"/materials",
			course.MaterialFields{Title: "Nope", Kind: course.KindLink})
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"locator": "a link material requires a URL"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update module keeps id", func(t *testing.T) {
		rec := do(t, http.MethodPut, "/v1/courses/"+c.ID+"/modules/"+mod.ID,
			course.ModuleFields{Title: "Unit One", AudienceTag: course.AudienceTag{Classrooms: []string{"C"}}})
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c = unmarshalCourse(t, rec)
		got := c.Content[0]
		if got.ID != mod.ID {
			t.Errorf("module ID changed: %s -> %s", mod.ID, got.ID)
		}
		if got.Title != "Unit One" {
			t.Errorf("title = %q; want %q", got.Title, "Unit One")
		}
		if len(got.Categories) != 1 {
			t.Errorf("children lost on update: %+v", got)
		}
	})

	t.Run("set progress", func(t *testing.T) {
		rec := do(t, http.MethodPatch, "/v1/courses/"+c.ID+"/progress", echoapi.ProgressRequest{Progress: 40})
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if c = unmarshalCourse(t, rec); c.Progress != 40 {
			t.Errorf("progress = %d; want 40", c.Progress)
		}
	})

	t.Run("progress out of range", func(t *testing.T) {
		rec := do(t, http.MethodPatch, "/v1/courses/"+c.ID+"/progress", echoapi.ProgressRequest{Progress: 101})
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"progress": "progress must be between 0 and 100"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("remove material", func(t *testing.T) {
		rec := do(t, http.MethodDelete, "/v1/courses/"+c.ID+"/categories/"+cat.ID+"/materials/"+mat.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c = unmarshalCourse(t, rec)
		if mats := c.Content[0].Categories[0].Materials; len(mats) != 0 {
			t.Errorf("len(Materials) = %d; want 0", len(mats))
		}
	})

	t.Run("unknown node is 404", func(t *testing.T) {
		rec := do(t, http.MethodPut, "/v1/courses/"+c.ID+"/modules/lol", course.ModuleFields{Title: "Lol"})
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("delete course", func(t *testing.T) {
		rec := do(t, http.MethodDelete, "/v1/courses/"+c.ID, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if _, err := crsSvc.Get(ctx, c.ID); err != course.ErrNotFound {
			t.Errorf("Get() after delete: err = %v; want %v", err, course.ErrNotFound)
		}
	})
}

func Test_courseApi_mutationsTeacherOnly(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)

	// a simulating teacher is a student for the duration of the simulation
	req, rec := newAuthRequest(http.MethodPost, "/v1/users/simulation", getToken(t, teacher),
		marchallObj(t, echoapi.SimulationRequest{Year: 6, Classroom: "B"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("starting simulation: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var respData echoapi.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	simToken := respData.Token

	body := marchallObj(t, course.CourseFields{Title: "Algebra"})
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "students cannot create", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "simulating teachers cannot create", token: simToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "teachers can create", token: getToken(t, teacher), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses"
		tt.body = body

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_visibility(t *testing.T) {
	resetDB(t)

	ctx := context.Background()
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)

	algebra, err := crsSvc.Create(ctx, teacher, course.CourseFields{
		Title:       "Algebra",
		AudienceTag: course.AudienceTag{Years: []int{7}, Classrooms: []string{"C"}},
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	algebra, err = crsSvc.AddModule(ctx, algebra.ID, course.ModuleFields{Title: "Open Unit"})
	if err != nil {
		t.Fatalf("AddModule(): %v", err)
	}
	algebra, err = crsSvc.AddModule(ctx, algebra.ID, course.ModuleFields{
		Title:       "Classroom A Unit",
		AudienceTag: course.AudienceTag{Classrooms: []string{"A"}},
	})
	if err != nil {
		t.Fatalf("AddModule(): %v", err)
	}
	biology, err := crsSvc.Create(ctx, teacher, course.CourseFields{
		Title:       "Biology",
		AudienceTag: course.AudienceTag{Years: []int{8}},
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	listTitles := func(t *testing.T, token string) []string {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var courses []course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		titles := make([]string, len(courses))
		for i, c := range courses {
			titles[i] = c.Title
		}
		return titles
	}

	t.Run("teachers see everything", func(t *testing.T) {
		titles := listTitles(t, getToken(t, teacher))
		if len(titles) != 2 {
			t.Errorf("titles = %v; want both courses", titles)
		}
	})

	t.Run("students see their cohort only", func(t *testing.T) {
		titles := listTitles(t, getToken(t, student))
		if len(titles) != 1 || titles[0] != "Algebra" {
			t.Errorf("titles = %v; want [Algebra]", titles)
		}
	})

	t.Run("detail is pruned for students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+algebra.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		c := unmarshalCourse(t, rec)
		if len(c.Content) != 1 || c.Content[0].Title != "Open Unit" {
			t.Errorf("content = %+v; want only the open unit", c.Content)
		}
	})

	t.Run("hidden course is 404 for students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+biology.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("simulating teacher reads as the simulated cohort", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/simulation", getToken(t, teacher),
			marchallObj(t, echoapi.SimulationRequest{Year: 8, Classroom: "A"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("starting simulation: code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData echoapi.LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}

		titles := listTitles(t, respData.Token)
		if len(titles) != 1 || titles[0] != "Biology" {
			t.Errorf("titles = %v; want [Biology]", titles)
		}
	})
}

func Test_courseApi_materialUpload(t *testing.T) {
	resetDB(t)

	ctx := context.Background()
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	teacherToken := getToken(t, teacher)

	c, err := crsSvc.Create(ctx, teacher, course.CourseFields{Title: "Algebra"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	c, err = crsSvc.AddModule(ctx, c.ID, course.ModuleFields{Title: "Unit 1"})
	if err != nil {
		t.Fatalf("AddModule(): %v", err)
	}
	c, err = crsSvc.AddCategory(ctx, c.ID, c.Content[0].ID, course.CategoryFields{Title: "Worksheets"})
	if err != nil {
		t.Fatalf("AddCategory(): %v", err)
	}
	catID := c.Content[0].Categories[0].ID

	newUploadRequest := func(t *testing.T, path string) (*http.Request, *httptest.ResponseRecorder) {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		_ = w.WriteField("title", "Worksheet 1")
		_ = w.WriteField("kind", course.KindFile)
		_ = w.WriteField("classrooms", "c, a") // canonicalized to upper case
		_ = w.WriteField("years", "7")
		fw, err := w.CreateFormFile("file", "worksheet.pdf")
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = fw.Write([]byte("%PDF-1.4 worksheet")); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
		if err = w.Close(); err != nil {
			t.Fatalf("closing multipart writer: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+teacherToken)
		return req, httptest.NewRecorder()
	}

	req, rec := newUploadRequest(t, "/v1/courses/"+c.ID+"/categories/"+catID+"/materials")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
	}

	c = unmarshalCourse(t, rec)
	mats := c.Content[0].Categories[0].Materials
	if len(mats) != 1 {
		t.Fatalf("len(Materials) = %d; want 1", len(mats))
	}
	mat := mats[0]
	if mat.Kind != course.KindFile || mat.FileName != "worksheet.pdf" {
		t.Errorf("unexpected material: %+v", mat)
	}
	if !strings.HasPrefix(mat.Locator, "mem://") {
		t.Fatalf("locator = %q; want a blob store URL", mat.Locator)
	}
	if got, ok := blobStore.Get(mat.Locator); !ok || string(got) != "%PDF-1.4 worksheet" {
		t.Errorf("blob content = %q, ok = %v", got, ok)
	}
	if len(mat.Classrooms) != 2 || mat.Classrooms[0] != "C" || mat.Classrooms[1] != "A" {
		t.Errorf("classrooms = %v; want [C A]", mat.Classrooms)
	}
	if len(mat.Years) != 1 || mat.Years[0] != 7 {
		t.Errorf("years = %v; want [7]", mat.Years)
	}
}

func Test_courseApi_ownership(t *testing.T) {
	resetDB(t)

	ctx := context.Background()
	owner := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	rival := testutil.CreateUser(t, usrRepo, "Rival", "rival@test.cd", "", user.RoleTeacher, 0, "", true)
	rivalToken := getToken(t, rival)

	c, err := crsSvc.Create(ctx, owner, course.CourseFields{Title: "Algebra"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	c, err = crsSvc.AddModule(ctx, c.ID, course.ModuleFields{Title: "Unit 1"})
	if err != nil {
		t.Fatalf("AddModule(): %v", err)
	}
	modID := c.Content[0].ID

	// a teacher who does not own the course cannot touch it
	tests := []httpTest{
		{name: "update", method: http.MethodPut, path: "/v1/courses/" + c.ID, body: marchallObj(t, course.CourseFields{Title: "Hijacked"})},
		{name: "set progress", method: http.MethodPatch, path: "/v1/courses/" + c.ID + "/progress", body: marchallObj(t, echoapi.ProgressRequest{Progress: 10})},
		{name: "add module", method: http.MethodPost, path: "/v1/courses/" + c.ID + "/modules", body: marchallObj(t, course.ModuleFields{Title: "Intrusion"})},
		{name: "update module", method: http.MethodPut, path: "/v1/courses/" + c.ID + "/modules/" + modID, body: marchallObj(t, course.ModuleFields{Title: "Intrusion"})},
		{name: "remove module", method: http.MethodDelete, path: "/v1/courses/" + c.ID + "/modules/" + modID},
		{name: "delete", method: http.MethodDelete, path: "/v1/courses/" + c.ID},
	}
	for _, tt := range tests {
		tt.token = rivalToken
		tt.wantCode = http.StatusForbidden
		tt.wantData = marchallObj(t, errForbidden)

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("unknown course is 404, not 403", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/lol", rivalToken,
			marchallObj(t, course.CourseFields{Title: "Hijacked"}))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("the owner still can", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+c.ID, getToken(t, owner),
			marchallObj(t, course.CourseFields{Title: "Algebra II"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if c := unmarshalCourse(t, rec); c.Title != "Algebra II" {
			t.Errorf("title = %s; want Algebra II", c.Title)
		}
	})
}

func Test_courseApi_ownerScopedList(t *testing.T) {
	resetDB(t)

	ctx := context.Background()
	teacher1 := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	teacher2 := testutil.CreateUser(t, usrRepo, "Rival", "rival@test.cd", "", user.RoleTeacher, 0, "", true)

	if _, err := crsSvc.Create(ctx, teacher1, course.CourseFields{
		Title: "Algebra", AudienceTag: course.AudienceTag{Years: []int{7}},
	}); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err := crsSvc.Create(ctx, teacher2, course.CourseFields{
		Title: "Biology", AudienceTag: course.AudienceTag{Years: []int{8}},
	}); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	list := func(t *testing.T, token, path string) []course.Course {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var courses []course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return courses
	}

	t.Run("mine scopes the list to the caller's courses", func(t *testing.T) {
		courses := list(t, getToken(t, teacher1), "/v1/courses?mine=true")
		if len(courses) != 1 || courses[0].Title != "Algebra" {
			t.Errorf("courses = %+v; want [Algebra]", courses)
		}
		if courses[0].OwnerID != teacher1.ID {
			t.Errorf("owner = %s; want %s", courses[0].OwnerID, teacher1.ID)
		}
	})

	t.Run("without mine teachers see everything", func(t *testing.T) {
		if courses := list(t, getToken(t, teacher1), "/v1/courses"); len(courses) != 2 {
			t.Errorf("courses = %+v; want both", courses)
		}
	})

	t.Run("students cannot use mine", func(t *testing.T) {
		student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)
		// the param is ignored for students: their cohort visibility still applies
		courses := list(t, getToken(t, student), "/v1/courses?mine=true")
		if len(courses) != 1 || courses[0].Title != "Algebra" {
			t.Errorf("courses = %+v; want [Algebra]", courses)
		}
	})
}
