// Package feed reads raw plan records from JSON files in a local directory.
//
// Feed files are named after the provider slug, for example verizon.json or
// verizon_20240301.json, and hold either a bare array of records or an
// object with a "plans" array. When several files match a provider the most
// recently modified one is used. Hidden files are ignored.
//
// The fetcher also implements PlanWatcher: it watches the directory with
// fsnotify and reports a provider whenever one of its feed files is created
// or rewritten.
package feed
