package db

// FindQuery exposes the filter composition to tests, the clause templates
// and parameter positions are part of the store's contract.
var FindQuery = findQuery
