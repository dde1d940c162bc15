package audit

import (
	"database/sql"

	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		db := do.MustInvoke[*sql.DB](i)
		return NewService(NewPostgresRepo(db)), nil
	})
}
