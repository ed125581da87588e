package storage

// Where exposes the filter renderer to the external test package.
var Where = where
