// Package export serializes cleaned account records as delimited text with a
// stable column set and a derived x_link profile column.
package export
