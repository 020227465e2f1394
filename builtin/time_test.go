// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package builtin

import (
	"testing"

	"github.com/liljencrantz/crush-sub002/value"
)

func TestTimeNowProducesATimeValue(t *testing.T) {
	e, _ := newTestEngine()
	v, err := runStages(e, callOf("time.now"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(value.Time); !ok {
		t.Fatalf("expected a value.Time, got %T", v)
	}
}

func TestTimeAddShiftsByCalendarSpan(t *testing.T) {
	e, _ := newTestEngine()
	ref := value.NewDate(2022, 12, 12, 0, 0, 0, 0)
	v, err := runStages(e, callOf("time.add", posArg(ref), posArg(value.String("1y1m99d"))))
	if err != nil {
		t.Fatal(err)
	}
	got := v.(value.Time)
	want := value.NewDate(2024, 4, 20, 0, 0, 0, 0)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTimeAddRejectsMalformedSpan(t *testing.T) {
	e, _ := newTestEngine()
	ref := value.NewDate(2022, 1, 1, 0, 0, 0, 0)
	if _, err := runStages(e, callOf("time.add", posArg(ref), posArg(value.String("not a span")))); err == nil {
		t.Fatal("expected an error for a malformed calendar span")
	}
}
