// internal is internal packages for uptrack.
//
// The storage packages (history and incident) and the probe package (scheme) do not depend on each other.
// The monitor package connects them, and the endpoint package serves the monitor over HTTP.
//
// The uterr package and the testutil package are exception cases for this rule.
// These packages are used by other packages.
package internal
