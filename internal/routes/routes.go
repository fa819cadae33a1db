package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/config"
	"github.com/kiarash-j/TutorLinkBack/internal/handlers"
	"github.com/kiarash-j/TutorLinkBack/internal/middleware"
	"github.com/kiarash-j/TutorLinkBack/internal/presence"
	"github.com/kiarash-j/TutorLinkBack/internal/repository"
	"github.com/kiarash-j/TutorLinkBack/internal/services"
	livews "github.com/kiarash-j/TutorLinkBack/internal/websocket"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	tracker *presence.Tracker,
	logger *zap.Logger,
) {
	userRepo := repository.NewUserRepository(db)
	studentProfileRepo := repository.NewStudentProfileRepository(db)
	teacherProfileRepo := repository.NewTeacherProfileRepository(db)
	phoneRequestRepo := repository.NewPhoneRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	hub := livews.NewHub(logger)
	go hub.Run()

	notificationService := services.NewNotificationService(notificationRepo, hub, logger)
	contactService := services.NewContactService(
		phoneRequestRepo,
		teacherProfileRepo,
		userRepo,
		notificationService,
		logger,
	)
	reviewService := services.NewReviewService(
		reviewRepo,
		teacherProfileRepo,
		userRepo,
		notificationService,
		logger,
	)
	chatService := services.NewChatService(
		db,
		conversationRepo,
		messageRepo,
		userRepo,
		notificationService,
		logger,
	)
	profileService := services.NewProfileService(studentProfileRepo, teacherProfileRepo)

	authHandler := handlers.NewAuthHandler(
		db,
		userRepo,
		studentProfileRepo,
		teacherProfileRepo,
		cfg.JWTSecret,
	)
	onboardingHandler := handlers.NewOnboardingHandler(studentProfileRepo, teacherProfileRepo)
	profileHandler := handlers.NewProfileHandler(profileService, studentProfileRepo, teacherProfileRepo)
	teacherDirectoryHandler := handlers.NewTeacherDirectoryHandler(teacherProfileRepo, tracker)
	presenceHandler := handlers.NewPresenceHandler(tracker)
	contactHandler := handlers.NewContactHandler(contactService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	chatHandler := handlers.NewChatHandler(chatService, hub, tracker, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	presenceGroup := authProtected.Group("/presence")
	presenceGroup.Post("/heartbeat", presenceHandler.Heartbeat)
	presenceGroup.Post("/offline", presenceHandler.GoOffline)
	presenceGroup.Get("/:id", presenceHandler.GetStatus)

	contacts := authProtected.Group("/contact-requests")
	contacts.Post("", contactHandler.CreateRequest)
	contacts.Get("", contactHandler.ListRequests)
	contacts.Get("/status", contactHandler.GetStatus)
	contacts.Post("/:id/approve", contactHandler.Approve)
	contacts.Post("/:id/reject", contactHandler.Reject)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Post("/:id/read", notificationHandler.MarkAsRead)
	notifications.Post("/read-all", notificationHandler.MarkAllAsRead)

	students := authProtected.Group("/students")
	students.Post("/onboarding", onboardingHandler.StudentOnboarding)
	students.Get("/profile", profileHandler.GetStudentProfile)
	students.Put("/profile", profileHandler.UpdateStudentProfile)

	teachers := authProtected.Group("/teachers")
	teachers.Get("", teacherDirectoryHandler.ListTeachers)
	teachers.Post("/onboarding", onboardingHandler.TeacherOnboarding)
	teachers.Get("/profile", profileHandler.GetTeacherProfile)
	teachers.Put("/profile", profileHandler.UpdateTeacherProfile)
	teachers.Get("/:id/reviews", reviewHandler.ListTeacherReviews)
	teachers.Get("/:id", teacherDirectoryHandler.GetTeacherDetail)

	reviews := authProtected.Group("/reviews")
	reviews.Post("", reviewHandler.SubmitReview)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
