// Package core ingests a CSV of user signups and writes the valid rows to the
// users table.
//
// It holds all domain logic independent of the database driver. The postgres
// implementation of [Store] lives in internal/database; tests use in-memory
// fakes.
//
// # Flow
//
//  1. [ReadSource] reads the file in one pass into [RawRow] values.
//  2. [Transformer.Transform] validates each row and builds a [UserRecord]:
//     signup_date must match YYYY-MM-DD HH:MM:SS and is reduced to the date,
//     email must match the address pattern and yields the domain.
//  3. [Loader.Load] maps records to [UserRow] values, stages them in one
//     [Session] and commits once.
//
// [Pipeline.Run] chains the three steps and logs each stage.
//
// # Error Handling
//
// Invalid rows are logged and skipped ([ErrRowFormat], [ErrInvalidEmail]).
// Every other failure ends the run: [SourceReadError] before anything is
// written, [ConnectionError] when the database cannot be reached, and
// [CommitError] when the batch was rolled back. [Kind] classifies an error and
// [MapError] gives it an operator-facing code.
package core
