package calls

import (
	"database/sql"

	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Store, error) {
		db := do.MustInvoke[*sql.DB](i)
		return NewPostgresStore(db), nil
	})
}
