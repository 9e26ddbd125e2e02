package diagfmt

import (
	"io"
	"beanstalk/internal/diag"
	"beanstalk/internal/source"
)

// Sarif принимает диагностики для SARIF (v2.1.0), но ничего не пишет в w.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) {
	// TODO: реализовать SARIF форматирование
	_ = w
	_ = bag
	_ = fs
	_ = meta
}
