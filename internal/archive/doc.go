// Package archive writes and inspects the release zip. Archives are
// deterministic: identical inputs always produce identical bytes.
package archive
