// Package catalog loads the local song catalog and answers search and random-pick queries over it.
//
// The catalog file is semicolon separated with a header row:
//
//	id;track_id;name;artists;genre;subgenre
//	1;4uLU6hMCjMI75M1A2tKUQC;Song A;['Artist X', 'Artist Y'];pop;dance pop
//
// Columns are located by header name, so extra columns are ignored. Ids are integers.
//
// [Search] performs a case-insensitive substring match over name, artists, genre and subgenre,
// keeping catalog order and reporting the true match count alongside a capped result slice.
package catalog
