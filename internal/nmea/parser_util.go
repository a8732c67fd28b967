package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func splitFields(body string) []string {
	return strings.Split(body, ",")
}

// field safely indexes fields, returning "" past the end (many sentences
// have trailing optional fields that may simply be absent from the body).
func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseOptInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseInt(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseOptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseCoordinate decodes a DDMM.mmmm / DDDMM.mmmm field into decimal
// degrees: degrees = int_part + minutes/60.
func parseCoordinate(s string, degreeDigits int) (float64, error) {
	if len(s) < degreeDigits {
		return 0, fmt.Errorf("nmea: coordinate %q too short", s)
	}

	degPart, minPart := s[:degreeDigits], s[degreeDigits:]

	deg, err := strconv.Atoi(degPart)
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid coordinate degrees %q: %w", degPart, err)
	}

	min, err := strconv.ParseFloat(minPart, 64)
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid coordinate minutes %q: %w", minPart, err)
	}

	return float64(deg) + min/60.0, nil
}

// parseLatLon decodes a lat/lon/NS/EW quartet. Invariant (ii): lat and lon
// are either both present or both absent, so a missing direction letter OR
// a missing magnitude field yields (nil, nil) rather than a partial result.
func parseLatLon(latStr, nsStr, lonStr, ewStr string) (*LatLon, error) {
	if latStr == "" || nsStr == "" || lonStr == "" || ewStr == "" {
		return nil, nil
	}

	lat, err := parseCoordinate(latStr, 2)
	if err != nil {
		return nil, err
	}
	if nsStr == "S" {
		lat = -lat
	} else if nsStr != "N" {
		return nil, fmt.Errorf("nmea: invalid north/south %q", nsStr)
	}

	lon, err := parseCoordinate(lonStr, 3)
	if err != nil {
		return nil, err
	}
	if ewStr == "W" {
		lon = -lon
	} else if ewStr != "E" {
		return nil, fmt.Errorf("nmea: invalid east/west %q", ewStr)
	}

	return &LatLon{Lat: lat, Lon: lon}, nil
}

// parseTimeOfDay decodes HHMMSS, HHMMSS.CC (centiseconds) or HHMMSS.mmm
// (milliseconds) into a time.Duration since midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	if len(s) < 6 {
		return 0, fmt.Errorf("nmea: time %q too short", s)
	}

	hh, err := strconv.Atoi(s[0:2])
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid hour in %q: %w", s, err)
	}
	mm, err := strconv.Atoi(s[2:4])
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid minute in %q: %w", s, err)
	}
	ss, err := strconv.Atoi(s[4:6])
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid second in %q: %w", s, err)
	}

	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second

	if len(s) > 6 {
		if s[6] != '.' {
			return 0, fmt.Errorf("nmea: invalid time fraction in %q", s)
		}
		frac := s[7:]
		switch len(frac) {
		case 2: // centiseconds
			cs, err := strconv.Atoi(frac)
			if err != nil {
				return 0, fmt.Errorf("nmea: invalid centiseconds in %q: %w", s, err)
			}
			d += time.Duration(cs) * 10 * time.Millisecond
		case 3: // milliseconds
			ms, err := strconv.Atoi(frac)
			if err != nil {
				return 0, fmt.Errorf("nmea: invalid milliseconds in %q: %w", s, err)
			}
			d += time.Duration(ms) * time.Millisecond
		default:
			return 0, fmt.Errorf("nmea: unsupported time fraction width in %q", s)
		}
	}

	return d, nil
}

func parseOptTimeOfDay(s string) (*time.Duration, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
