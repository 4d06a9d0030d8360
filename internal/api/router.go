package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/izgubljeno/internal/imaging"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/scheduler"
	"github.com/erazemk/izgubljeno/internal/service"
)

// Deps are the collaborators the API needs.
type Deps struct {
	DB          *sql.DB
	JWTSecret   string
	TokenExpiry time.Duration
	Service     *service.Service
	Images      imaging.Options

	// Scheduler may be nil, in which case the scheduler endpoints are not
	// registered.
	Scheduler *scheduler.Scheduler
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, TokenExpiry: d.TokenExpiry}
	usersHandler := &UsersHandler{DB: d.DB}
	placesHandler := &PlacesHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{Service: d.Service, Images: d.Images}
	claimsHandler := &ClaimsHandler{Service: d.Service}
	disposalHandler := &DisposalHandler{Service: d.Service}
	rewardsHandler := &RewardsHandler{Service: d.Service}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleTeacher)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }
	staff := func(h http.HandlerFunc) http.Handler { return authMW(requireStaff(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Places: read (all roles), write (admin).
	mux.Handle("GET /api/places", authed(placesHandler.List))
	mux.Handle("POST /api/places", admin(placesHandler.Create))
	mux.Handle("PUT /api/places/{id}", admin(placesHandler.Rename))

	// Items. Capability checks beyond authentication happen in the service.
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("POST /api/items", authed(itemsHandler.Register))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/approval", authed(itemsHandler.Approve))
	mux.Handle("POST /api/items/{id}/give", authed(itemsHandler.Give))
	mux.Handle("GET /api/items/{id}/gives", staff(itemsHandler.ItemGives))
	mux.Handle("PUT /api/items/{id}/image", authed(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed(itemsHandler.GetImage(false)))
	mux.Handle("GET /api/items/{id}/thumbnail", authed(itemsHandler.GetImage(true)))
	mux.Handle("GET /api/gives", staff(itemsHandler.ListGives))

	// Claims.
	mux.Handle("POST /api/items/{id}/claims", authed(claimsHandler.Submit))
	mux.Handle("GET /api/claims", authed(claimsHandler.List))
	mux.Handle("GET /api/claims/count", authed(claimsHandler.Count))
	mux.Handle("GET /api/claims/mine", authed(claimsHandler.Mine))
	mux.Handle("POST /api/claims/{id}/resolve", authed(claimsHandler.Resolve))

	// Disposal holds.
	mux.Handle("POST /api/items/{id}/disposal-holds", authed(disposalHandler.Submit))
	mux.Handle("GET /api/items/{id}/disposal-holds", staff(disposalHandler.List))
	mux.Handle("GET /api/items/{id}/disposal-hold", staff(disposalHandler.Latest))
	mux.Handle("POST /api/items/{id}/disposal-holds/{hold}/apply", authed(disposalHandler.Apply))

	// Rewards.
	mux.Handle("POST /api/items/{id}/reward", authed(rewardsHandler.Grant))
	mux.Handle("GET /api/rewards", authed(rewardsHandler.List))

	if d.Scheduler != nil {
		schedulerHandler := &SchedulerHandler{Scheduler: d.Scheduler}
		mux.Handle("GET /api/scheduler", admin(schedulerHandler.Status))
		mux.Handle("POST /api/scheduler/run", admin(schedulerHandler.Run))
	}

	return mux
}
