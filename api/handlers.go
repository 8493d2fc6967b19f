package api

import (
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"board-api/board"
	"board-api/domain"
)

// requestBodyMaxSize caps mutation payloads. Board records are small; anything
// bigger than this is not a legitimate request.
const requestBodyMaxSize = 64 * 1024

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, b Board, profiles Profiles, auth Authenticator, logger *log.Logger) {
	e.GET("/api/columns", listColumns(b, auth))
	e.POST("/api/columns", createColumn(b, auth))
	e.POST("/api/columns/initialize", initColumns(b, auth))
	e.GET("/api/columns/:columnID", getColumn(b, auth))
	e.PUT("/api/columns/:columnID", updateColumn(b, auth))
	e.DELETE("/api/columns/:columnID", deleteColumn(b, auth))

	e.GET("/api/tasks", listTasks(b, auth, logger))
	e.GET("/api/tasks/priority-week", dueSoonTasks(b, auth))
	e.POST("/api/tasks", createTask(b, auth))
	e.GET("/api/tasks/:taskID", getTask(b, auth))
	e.PUT("/api/tasks/:taskID", updateTask(b, auth))
	e.POST("/api/tasks/:taskID/move", moveTask(b, auth))
	e.DELETE("/api/tasks/:taskID", deleteTask(b, auth))

	e.GET("/api/users/me", getProfile(profiles, auth))
	e.PUT("/api/users/me", updateProfile(profiles, auth))
	e.GET("/api/users/:userID", getProfileByID(profiles, auth))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func identify(c echo.Context, auth Authenticator) (Identity, error) {
	return auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
}

// decodeBody decodes a JSON request strictly: unknown fields are rejected so
// a patch can never smuggle id or owner overrides.
func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return domain.ValidationError{Field: "body", Reason: "malformed request body"}
	}
	return nil
}

func listColumns(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		cols, err := b.ListColumns(c.Request().Context(), id.Subject)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, cols)
	}
}

func initColumns(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		cols, err := b.InitColumns(c.Request().Context(), id.Subject)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, cols)
	}
}

func createColumn(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in board.CreateColumnInput
		if err := decodeBody(c, &in); err != nil {
			return respondError(c, err)
		}
		col, err := b.CreateColumn(c.Request().Context(), id.Subject, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, col)
	}
}

func getColumn(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		col, err := b.GetColumn(c.Request().Context(), id.Subject, c.Param("columnID"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func updateColumn(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var patch domain.ColumnPatch
		if err := decodeBody(c, &patch); err != nil {
			return respondError(c, err)
		}
		col, err := b.UpdateColumn(c.Request().Context(), id.Subject, c.Param("columnID"), patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func deleteColumn(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := b.DeleteColumn(c.Request().Context(), id.Subject, c.Param("columnID")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func listTasks(b Board, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/tasks")
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		id, authErr := identify(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		fetchStart := time.Now()
		tasks, fetchErr := b.ListTasks(ctx, id.Subject)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			err = respondError(c, fetchErr)
			return err
		}
		metrics.SetResultCount(len(tasks))

		err = c.JSON(http.StatusOK, tasks)
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func dueSoonTasks(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		tasks, err := b.DueSoon(c.Request().Context(), id.Subject, time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func createTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in board.CreateTaskInput
		if err := decodeBody(c, &in); err != nil {
			return respondError(c, err)
		}
		task, err := b.CreateTask(c.Request().Context(), id.Subject, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func getTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		task, err := b.GetTask(c.Request().Context(), id.Subject, c.Param("taskID"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func updateTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return respondError(c, err)
		}
		task, err := b.UpdateTask(c.Request().Context(), id.Subject, c.Param("taskID"), patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

type moveTaskRequest struct {
	ColumnID string `json:"columnId"`
	Position int    `json:"position"`
}

func moveTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var in moveTaskRequest
		if err := decodeBody(c, &in); err != nil {
			return respondError(c, err)
		}
		task, err := b.MoveTask(c.Request().Context(), id.Subject, c.Param("taskID"), in.ColumnID, in.Position)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(b Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := b.DeleteTask(c.Request().Context(), id.Subject, c.Param("taskID")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func getProfile(profiles Profiles, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, profiles.Lookup(id.Subject, id.TokenInfo()))
	}
}

func updateProfile(profiles Profiles, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var patch domain.ProfilePatch
		if err := decodeBody(c, &patch); err != nil {
			return respondError(c, err)
		}
		// Ensure the profile exists before patching; the first authenticated
		// request may be this update.
		profiles.Lookup(id.Subject, id.TokenInfo())
		profile, err := profiles.Update(id.Subject, patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, profile)
	}
}

func getProfileByID(profiles Profiles, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := identify(c, auth)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		// Users may only view their own profile.
		if c.Param("userID") != id.Subject {
			return c.JSON(http.StatusForbidden, errorResponse{Error: "you can only view your own profile"})
		}
		return c.JSON(http.StatusOK, profiles.Lookup(id.Subject, id.TokenInfo()))
	}
}
