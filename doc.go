// Package fpdb builds SQL queries from templates with typed placeholders, substituting escaped literals in place so the result is a plain SQL string ready to send. It recognizes five placeholders (?d int, ?f float, ?a array or SET list, ?# identifier, ? auto-typed) and optional {...} blocks that disappear when one of their arguments is Skip().
//
//	q, err := fpdb.BuildQuery(
//		"UPDATE users SET name = ? {, block = ?d} WHERE user_id = ?d",
//		"Jack", fpdb.Skip(), 1,
//	)
//	// UPDATE users SET name = 'Jack'  WHERE user_id = 1
//
// It is not a SQL parser: every '?' in the template is a placeholder, including
// one inside a quoted string.
package fpdb
