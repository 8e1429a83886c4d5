package middleware

import (
	"net/http"

	"gigmarket/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextのroleが許可リストに入っているか確認する
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(model.Role)
			if !ok || role == "" {
				return deny(c)
			}
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden", Kind: "forbidden"})
		}
	}
}

func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRoles(model.RoleAdmin)
}

// AuthJWTが入れた値からActorを作る
func ActorFromContext(c echo.Context) (model.Actor, bool) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return model.Actor{}, false
	}
	role, ok := c.Get(CtxUserRoleKey).(model.Role)
	if !ok {
		return model.Actor{}, false
	}
	a := model.Actor{UserID: userID, Role: role}
	return a, a.Valid()
}
