package http

import (
	"database/sql"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	authmw "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
	"github.com/bhaskar601/shikshaoffline/internal/quiz"
	"github.com/bhaskar601/shikshaoffline/internal/rbac"
	"github.com/bhaskar601/shikshaoffline/internal/report"
	"github.com/bhaskar601/shikshaoffline/internal/school"
	"github.com/bhaskar601/shikshaoffline/internal/storage"
)

type Deps struct {
	DB       *sql.DB
	Auth     *authmw.AuthService
	Bank     *bank.Service
	Quizzes  *quiz.Service
	Accounts *account.SQLStore
	Schools  *school.Store
	Reports  *report.Store
	Events   *eventlog.Repo
	Practice *practice.Manager
	Media    *media.Resolver
	Blobs    storage.BlobStore

	CORSOrigins []string
	// Admin login is mounted only when AdminPassword is set.
	AdminID       string
	AdminPassword string
	// Skips the request logger; tests set it.
	Quiet bool
}

func NewRouter(d Deps) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if !d.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// ---- public ----
	r.Post("/students", RegisterStudentHandler(d.Accounts))
	r.Post("/students/login", StudentLoginHandler(d.Accounts, d.Auth))
	r.Post("/teachers", RegisterTeacherHandler(d.Accounts))
	r.Post("/teachers/login", TeacherLoginHandler(d.Accounts, d.Auth))
	if d.AdminPassword != "" {
		r.Post("/admin/login", AdminLoginHandler(d.Auth, d.AdminID, d.AdminPassword))
	}
	r.Get("/schools", ListSchoolsHandler(d.Schools))
	r.Get("/schools/{id}", GetSchoolHandler(d.Schools))
	r.Route("/images", func(ir chi.Router) {
		MountImages(ir, d.Blobs)
	})

	r.Get("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			nethttp.Error(w, "db unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	// ---- protected (JWT -> subject and role in context -> RBAC) ----
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		// Questions
		pr.With(rbac.Require("question:create")).Post("/questions", CreateQuestionHandler(d.Bank))
		pr.With(rbac.Require("question:view")).Get("/questions", ListQuestionsHandler(d.Bank, d.Media))
		pr.With(rbac.Require("question:view")).
			Get("/questions/topics/{class}/{subject}", TopicsHandler(d.Bank))
		pr.With(rbac.Require("question:view")).
			Get("/questions/id/{id}", GetQuestionHandler(d.Bank, d.Media))
		pr.With(rbac.Require("question:view")).
			Get("/questions/{class}/{subject}/{topic}", TopicQuestionsHandler(d.Bank, d.Media))
		pr.With(rbac.Require("question:update")).Put("/questions/{id}", UpdateQuestionHandler(d.Bank))
		pr.With(rbac.Require("question:delete")).Delete("/questions/{id}", DeleteQuestionHandler(d.Bank))
		pr.With(rbac.Require("question:create")).
			Post("/uploads/images/{class}/{subject}/{topic}", UploadImageHandler(d.Blobs))
		pr.With(rbac.Require("question:create")).
			Post("/questions/import/{class}/{subject}/{topic}", ImportQTIHandler(d.Bank, d.Blobs))

		// Quizzes
		pr.With(rbac.Require("quiz:create")).Post("/quizzes", CreateQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:view")).Get("/quizzes", ListQuizzesHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/teacher/{teacherID}", TeacherQuizzesHandler(d.Quizzes))
		pr.With(rbac.RequireOwnerOr("quiz:view", "quiz:view-all", isSelf("studentID"))).
			Get("/quizzes/student/{studentID}", StudentQuizzesHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:view")).Get("/quizzes/{quizID}", GetQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:update")).Put("/quizzes/{quizID}", UpdateQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:delete")).Delete("/quizzes/{quizID}", DeleteQuizHandler(d.Quizzes))

		// Students
		pr.With(rbac.Require("student:view-all")).Get("/students", ListStudentsHandler(d.Accounts))
		pr.With(rbac.RequireOwnerOr("student:view-own", "student:view-all", isSelf("id"))).
			Get("/students/{id}", GetStudentHandler(d.Accounts))
		pr.With(rbac.RequireOwnerOr("student:update-own", "student:update-all", isSelf("id"))).
			Put("/students/{id}", UpdateStudentHandler(d.Accounts))
		pr.With(rbac.Require("student:delete")).Delete("/students/{id}", DeleteStudentHandler(d.Accounts))

		// Teachers
		pr.With(rbac.Require("teacher:view-all")).Get("/teachers", ListTeachersHandler(d.Accounts))
		pr.With(rbac.Require("teacher:view-all")).Get("/teachers/{id}", GetTeacherHandler(d.Accounts))
		pr.With(rbac.RequireOwnerOr("teacher:update-own", "teacher:update-all", isSelf("id"))).
			Put("/teachers/{id}", UpdateTeacherHandler(d.Accounts))
		pr.With(rbac.Require("teacher:delete")).Delete("/teachers/{id}", DeleteTeacherHandler(d.Accounts))

		// Schools
		pr.With(rbac.Require("school:manage")).Post("/schools", CreateSchoolHandler(d.Schools))
		pr.With(rbac.Require("school:manage")).Put("/schools/{id}", UpdateSchoolHandler(d.Schools))
		pr.With(rbac.Require("school:manage")).Delete("/schools/{id}", DeleteSchoolHandler(d.Schools))

		// Reports
		pr.With(rbac.Require("report:create")).Post("/reports", CreateReportHandler(d.Reports))
		pr.With(rbac.Require("report:view-all")).Get("/reports", ListReportsHandler(d.Reports))
		pr.With(rbac.RequireOwnerOr("report:view-own", "report:view-all", isSelf("studentID"))).
			Get("/reports/student/{studentID}", StudentReportsHandler(d.Reports))
		pr.With(rbac.RequireAny("report:view-own", "report:view-all")).
			Get("/reports/{id}", GetReportHandler(d.Reports))
		pr.With(rbac.Require("report:delete")).Delete("/reports/{id}", DeleteReportHandler(d.Reports))

		pr.With(rbac.Require("event:view")).Get("/events", ListEventsHandler(d.Events))

		// Practice sessions belong to the student in the token.
		pr.Route("/practice/sessions", func(sr chi.Router) {
			sr.Use(rbac.Require("practice:play"))
			MountPractice(sr, d.Practice, d.Media, d.Accounts)
		})
	})

	return r
}

// isSelf reports whether URL param name is the caller's own id.
func isSelf(name string) func(r *nethttp.Request) bool {
	return func(r *nethttp.Request) bool {
		sub := authmw.SubjectFromContext(r.Context())
		return sub != "" && chi.URLParam(r, name) == sub
	}
}
