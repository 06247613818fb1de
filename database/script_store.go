// database/script_store.go
package database

import (
	"context"
	"fmt"
	"strings"
)

// ExecScript runs a whole SQL script in one round trip. The connection must
// have multi-statement support enabled (see RoleAdmin). Statements are not
// wrapped individually: DDL inside the script commits implicitly on MySQL.
func ExecScript(ctx context.Context, db Execer, name, script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("script %s is empty", name)
	}
	if _, err := db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return nil
}
