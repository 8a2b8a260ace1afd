// See source.go for the Source interface.
//
// Three implementations are provided:
//
//   - SimSource: portable in-process simulation, used by every test in
//     this module.
//   - UnixSource: production source for Linux/Darwin/BSD, backed by
//     mmap+mprotect (build tag "unix").
//   - WindowsSource: production source for Windows, backed by
//     VirtualAlloc (build tag "windows").
package pages
