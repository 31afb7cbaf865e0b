// Package shared holds helpers used across the policydash packages that do
// not belong to any single layer.
//
// The testutil subpackage provides a buffered slog handler so tests can
// assert on what a component logged:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    component := NewComponent(logger)
//	    component.Run()
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "finished")
//	}
//
// Nothing here may import business packages.
package shared
