// Package dataquery turns heterogeneous tabular files into queryable SQL tables.
//
// Uploaded files (CSV, TXT, XLSX, Parquet, Avro, JSON, XML, and zip archives of
// those) are normalized into tables registered in an in-process DuckDB database.
// A Session owns the database, the catalog of live tables, and the current query
// result; arbitrary SQL can be run against the catalog and any result can be
// exported back to a chosen file format.
//
// Typical usage:
//
//	session, err := dataquery.NewSession(ctx)
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
//	report, err := session.UpdateUploads(ctx, files, optionsFor)
//	if err != nil {
//		return err
//	}
//
//	result, err := session.Query(ctx, "SELECT * FROM sales_csv WHERE amount > 100")
//	if err != nil {
//		return err
//	}
//
//	data, err := session.ExportResult(dataquery.FormatParquet, dataquery.NewExportOptions())
//
// The catalog is purely in-memory and scoped to one Session. A Session is not
// safe for concurrent use; each logical user session must own its own Session.
package dataquery
