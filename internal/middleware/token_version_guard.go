package middleware

import (
	"gigmarket/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionが一致するか確認。無効化されたユーザーも弾く
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_idを取得する
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return deny(c)
			}

			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return deny(c)
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil {
				return deny(c)
			}

			//token_versionが一致しなければ強制ログアウト扱い（401）
			if user.TokenVersion != tv || !user.IsActive {
				return deny(c)
			}

			// roleはDBの値を正とする
			c.Set(CtxUserRoleKey, user.Role)
			return next(c)
		}
	}
}
