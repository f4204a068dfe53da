package catras_test

import (
	"fmt"

	"github.com/eunmann/catras/pkg/catras"
)

func Example() {
	buf, err := catras.Encode(&catras.Record{
		Header: catras.Header{
			SeriesName: "Oak beam 7",
			SeriesCode: "OB7",
			StartYear:  1612,
			FileType:   catras.FileTypeRaw,
		},
		Series: catras.Series{Values: []int{0, 0, 143, 120, 97}},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	rec, warnings, err := catras.Decode(buf)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(len(buf), rec.Header.SeriesCode, rec.Header.StartYear, rec.Header.EndYear())
	fmt.Println(rec.Series.Values, len(warnings))
	// Output:
	// 256 OB7 1614 AD 1616 AD
	// [143 120 97] 0
}
