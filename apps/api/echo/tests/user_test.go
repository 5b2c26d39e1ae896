package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/raphco/materia/apps/api/echo"
	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/user"
	emailsvc "github.com/raphco/materia/services/email"
	testutil "github.com/raphco/materia/tests"
)

func Test_userApi_login(t *testing.T) {
	resetDB(t)

	testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "LolC@t123", user.RoleStudent, 7, "C", true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog@test.cd", "LolC@t123", user.RoleStudent, 7, "C", false) // 😂

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.LoginRequest{}),
			wantData: marchallObj(t, echoapi.LoginRequest{Email: "this field is required", Password: "this field is required"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "lol@test.cd", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "hero@test.cd", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "ndog@test.cd", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Email: "hero@test.cd", Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Fatal("failed! empty token")
				}
				claims := parseClaims(t, respData.Token)
				if claims.Email != "hero@test.cd" || !claims.IsStudent || claims.Year != 7 || claims.Classroom != "C" {
					t.Errorf("unexpected claims: %+v", claims)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	resetDB(t)

	path := func(search, ordering, role string, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if role != "" {
			v.Add("role", role)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true, t1)
	king := testutil.CreateUser(t, usrRepo, "King", "king@test.cd", "", user.RoleStudent, 7, "A", true, t2)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@test.cd", "", user.RoleStudent, 9, "E", false) // 😂

	teacherToken := getToken(t, teacher)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", path: path("", "name", "", nil), token: teacherToken,
			wantData: marchallList(t, student, king, naughty, teacher),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "name", "", nil), token: teacherToken, wantData: empty},
		{name: "search=HER", path: path("HER", "name", "", nil), token: teacherToken, wantData: marchallList(t, student)},
		{name: "search by email", path: path("king@", "name", "", nil), token: teacherToken, wantData: marchallList(t, king)},
		{name: "role (unknown)", path: path("", "name", "lol", nil), token: teacherToken, wantData: empty},
		{name: "role=teacher", path: path("", "name", user.RoleTeacher, nil), token: teacherToken, wantData: marchallList(t, teacher)},
		{
			name: "role=student", path: path("", "name", user.RoleStudent, nil), token: teacherToken,
			wantData: marchallList(t, student, king, naughty),
		},
		{
			name: "is_active=true", path: path("", "name", "", bPtr(true)), token: teacherToken,
			wantData: marchallList(t, student, king, teacher),
		},
		{name: "is_active=false", path: path("", "name", "", bPtr(false)), token: teacherToken, wantData: marchallList(t, naughty)},
		// ordering
		{
			name: "order by created_at", path: path("", "created_at", "", nil), token: teacherToken,
			wantData: marchallList(t, teacher, naughty, student, king),
		},
		{
			name: "order by -created_at", path: path("", "-created_at", "", nil), token: teacherToken,
			wantData: marchallList(t, king, student, naughty, teacher),
		},
		// filtering & ordering
		{
			name: "filtering & ordering", path: path("", "-name", user.RoleStudent, bPtr(true)), token: teacherToken,
			wantData: marchallList(t, king, student),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)
	teacherToken := getToken(t, teacher)

	newStudent := user.NewUser{
		Name:            "King",
		Email:           "king@test.cd",
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
		Year:            7,
		Classroom:       "a", // canonicalized to upper case
	}
	missingCohort := newStudent
	missingCohort.Year = 0
	missingCohort.Classroom = ""
	dupEmail := newStudent
	dupEmail.Email = student.Email

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", token: getToken(t, student), body: marchallObj(t, newStudent),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "student needs a cohort", token: teacherToken, body: marchallObj(t, missingCohort),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"year":      "students must provide their school year and classroom",
				"classroom": "students must provide their school year and classroom",
			}),
		},
		{
			name: "email must be unique", token: teacherToken, body: marchallObj(t, dupEmail),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{name: "register", token: teacherToken, body: marchallObj(t, newStudent), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if usr.ID == "" {
					t.Error("failed! empty user ID")
				}
				if usr.Role != user.RoleStudent {
					t.Errorf("role = %s; want %s", usr.Role, user.RoleStudent)
				}
				if usr.Classroom != "A" {
					t.Errorf("classroom = %s; want A", usr.Classroom)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieveSelf(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_simulation(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)
	teacherToken := getToken(t, teacher)

	startSim := func(t *testing.T, token string, year int, classroom string) string {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/simulation", token,
			marchallObj(t, echoapi.SimulationRequest{Year: year, Classroom: classroom}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("startSim() code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData echoapi.LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return respData.Token
	}

	t.Run("students cannot simulate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/simulation", getToken(t, student),
			marchallObj(t, echoapi.SimulationRequest{Year: 6, Classroom: "B"}))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("cohort is validated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/simulation", teacherToken,
			marchallObj(t, echoapi.SimulationRequest{Year: 12, Classroom: "Z"}))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"year":      "school year must be between 1 and 9",
				"classroom": "invalid classroom",
			}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("start simulation", func(t *testing.T) {
		simToken := startSim(t, teacherToken, 6, "b") // classroom canonicalized

		claims := parseClaims(t, simToken)
		if !claims.IsTeacher {
			t.Error("identity claims must survive the simulation")
		}
		if !claims.Simulating() {
			t.Fatal("token does not carry the simulated cohort")
		}
		want := user.Viewer{Role: user.RoleStudent, Year: 6, Classroom: "B"}
		if v := claims.Viewer(); v != want {
			t.Errorf("Viewer() = %+v; want %+v", v, want)
		}
	})

	t.Run("simulating teacher loses teacher endpoints", func(t *testing.T) {
		simToken := startSim(t, teacherToken, 6, "B")

		req, rec := newAuthRequest(http.MethodGet, "/v1/users", simToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("simulation survives a token refresh", func(t *testing.T) {
		simToken := startSim(t, teacherToken, 6, "B")

		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", simToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData echoapi.LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		claims := parseClaims(t, respData.Token)
		if !claims.Simulating() || claims.SimYear != 6 || claims.SimClassroom != "B" {
			t.Errorf("simulation lost on refresh: %+v", claims)
		}
	})

	t.Run("end simulation", func(t *testing.T) {
		simToken := startSim(t, teacherToken, 6, "B")

		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/simulation", simToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData echoapi.LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		claims := parseClaims(t, respData.Token)
		if claims.Simulating() {
			t.Error("simulation still active after DELETE")
		}
		want := user.Viewer{Role: user.RoleTeacher}
		if v := claims.Viewer(); v != want {
			t.Errorf("Viewer() = %+v; want %+v", v, want)
		}
	})
}

func Test_userApi_userRefreshToken(t *testing.T) {
	resetDB(t)

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@test.cd", "", user.RoleStudent, 9, "E", false) // 😂
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   student.ID,
			Audience:  core.Conf.AppName,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		IsStudent:    student.IsStudent(),
		Year:         student.Year,
		Classroom:    student.Classroom,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userDestroy(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, 0, "", true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)
	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", path: "/v1/users/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Not found", path: "/v1/users/lol", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		// Say No to Suicide!
		{
			name: "self-delete not allowed", path: "/v1/users/" + teacher.ID, token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "delete", path: "/v1/users/" + student.ID, token: teacherToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_signup(t *testing.T) {
	resetDB(t)

	testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, 7, "C", true)

	newStudent := user.NewUser{
		Name:            "King",
		Email:           "king@test.cd",
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
		Year:            7,
		Classroom:       "a", // canonicalized to upper case
	}
	missingCohort := newStudent
	missingCohort.Year = 0
	missingCohort.Classroom = ""
	dupEmail := newStudent
	dupEmail.Email = "hero@test.cd"
	wannabeTeacher := newStudent
	wannabeTeacher.Email = "sneaky@test.cd"
	wannabeTeacher.Role = user.RoleTeacher

	tests := []httpTest{
		{
			name: "students need a cohort", body: marchallObj(t, missingCohort),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"year":      "students must provide their school year and classroom",
				"classroom": "students must provide their school year and classroom",
			}),
		},
		{
			name: "email must be unique", body: marchallObj(t, dupEmail),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{name: "signup", body: marchallObj(t, newStudent), wantCode: http.StatusCreated},
		// the role field is ignored: self-signup never grants teacher
		{name: "signup as teacher", body: marchallObj(t, wannabeTeacher), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/signup"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if usr.Role != user.RoleStudent {
					t.Errorf("role = %s; want %s", usr.Role, user.RoleStudent)
				}
				if usr.Classroom != "A" {
					t.Errorf("classroom = %s; want A", usr.Classroom)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_updateProfile(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "LolC@t123", user.RoleStudent, 7, "C", true)
	token := getToken(t, student)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "current password required", token: token,
			body:     marchallObj(t, user.ProfileUpdate{NewPassword: "NewC@t456", NewPasswordConfirm: "NewC@t456"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"current_password": "this field is required"}),
		},
		{
			name: "wrong current password", token: token,
			body: marchallObj(t, user.ProfileUpdate{
				CurrentPassword: "nope", NewPassword: "NewC@t456", NewPasswordConfirm: "NewC@t456",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"current_password": "current password does not match"}),
		},
		{
			name: "change password", token: token,
			body: marchallObj(t, user.ProfileUpdate{
				CurrentPassword: "LolC@t123", NewPassword: "NewC@t456", NewPasswordConfirm: "NewC@t456",
			}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = "/v1/users/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				// old password no longer works, new one does
				req, rec = newRequest(http.MethodPost, "/v1/users/login",
					marchallObj(t, echoapi.LoginRequest{Email: "hero@test.cd", Password: "LolC@t123"}))
				app.ServeHTTP(rec, req)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("old password login code = %v; want %v", rec.Code, http.StatusBadRequest)
				}
				req, rec = newRequest(http.MethodPost, "/v1/users/login",
					marchallObj(t, echoapi.LoginRequest{Email: "hero@test.cd", Password: "NewC@t456"}))
				app.ServeHTTP(rec, req)
				if rec.Code != http.StatusOK {
					t.Errorf("new password login code = %v; want %v", rec.Code, http.StatusOK)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	resetDB(t)
	emailsvc.SentMessages = nil

	testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "LolC@t123", user.RoleStudent, 7, "C", true)

	// request: always answers 200, mails a UID/token pair
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset",
		marchallObj(t, echoapi.PasswordResetRequest{Email: "hero@test.cd"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("request code = %v; want %v", rec.Code, http.StatusOK)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent messages = %d; want 1", len(emailsvc.SentMessages))
	}
	data, err := json.Marshal(emailsvc.SentMessages[0].TemplateData)
	if err != nil {
		t.Fatalf("json.Marshal() failed! err %v", err)
	}
	var creds struct {
		UID   string
		Token string
	}
	if err = json.Unmarshal(data, &creds); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if creds.UID == "" || creds.Token == "" {
		t.Fatalf("mail is missing reset credentials: %s", data)
	}

	// confirm with the mailed credentials
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset-confirm",
		marchallObj(t, user.ResetUserPassword{
			Token: creds.Token, UID: creds.UID, Password: "NewC@t456", PasswordConfirm: "NewC@t456",
		}))
	app.ServeHTTP(rec, req)
	wantData := marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantData}, rec)

	// the new password is live
	req, rec = newRequest(http.MethodPost, "/v1/users/login",
		marchallObj(t, echoapi.LoginRequest{Email: "hero@test.cd", Password: "NewC@t456"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("login code = %v; want %v", rec.Code, http.StatusOK)
	}

	// a used token cannot be replayed
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset-confirm",
		marchallObj(t, user.ResetUserPassword{
			Token: creds.Token, UID: creds.UID, Password: "OtherC@t789", PasswordConfirm: "OtherC@t789",
		}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"token": "invalid value"}),
	}, rec)
}
