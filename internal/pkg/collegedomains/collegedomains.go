// Package collegedomains classifies email addresses by institutional domain.
// Classification is a pure lookup against a static registry; it performs no
// I/O and is safe for unlimited concurrent use.
package collegedomains

import "strings"

// registry maps known institutional email domains to canonical college names.
// Keys are lowercase. Kept in sync with the seeded colleges table.
var registry = map[string]string{
	// Ivy League
	"harvard.edu":   "Harvard University",
	"yale.edu":      "Yale University",
	"princeton.edu": "Princeton University",
	"columbia.edu":  "Columbia University",
	"upenn.edu":     "University of Pennsylvania",
	"brown.edu":     "Brown University",
	"dartmouth.edu": "Dartmouth College",
	"cornell.edu":   "Cornell University",

	// Top private universities
	"stanford.edu":     "Stanford University",
	"mit.edu":          "MIT",
	"caltech.edu":      "Caltech",
	"uchicago.edu":     "University of Chicago",
	"duke.edu":         "Duke University",
	"northwestern.edu": "Northwestern University",
	"jhu.edu":          "Johns Hopkins University",
	"vanderbilt.edu":   "Vanderbilt University",
	"rice.edu":         "Rice University",
	"wustl.edu":        "Washington University in St. Louis",
	"emory.edu":        "Emory University",
	"georgetown.edu":   "Georgetown University",
	"usc.edu":          "University of Southern California",
	"nyu.edu":          "New York University",
	"bu.edu":           "Boston University",
	"northeastern.edu": "Northeastern University",
	"tufts.edu":        "Tufts University",
	"brandeis.edu":     "Brandeis University",
	"bc.edu":           "Boston College",
	"wpi.edu":          "Worcester Polytechnic Institute",
	"smu.edu":          "Southern Methodist University",
	"trinity.edu":      "Trinity University",
	"baylor.edu":       "Baylor University",
	"tcu.edu":          "Texas Christian University",

	// UC system
	"ucla.edu":     "UC Los Angeles",
	"berkeley.edu": "UC Berkeley",
	"ucdavis.edu":  "UC Davis",
	"ucsd.edu":     "UC San Diego",
	"uci.edu":      "UC Irvine",
	"ucsb.edu":     "UC Santa Barbara",
	"ucsc.edu":     "UC Santa Cruz",
	"ucr.edu":      "UC Riverside",
	"ucmerced.edu": "UC Merced",

	// State universities
	"state-university.edu": "State University",
	"umich.edu":            "University of Michigan",
	"umass.edu":            "University of Massachusetts",
	"umassd.edu":           "UMass Dartmouth",
	"umassb.edu":           "UMass Boston",
	"umassl.edu":           "UMass Lowell",
	"uconn.edu":            "University of Connecticut",
	"umd.edu":              "University of Maryland",
	"rutgers.edu":          "Rutgers University",
	"psu.edu":              "Penn State University",
	"osu.edu":              "Ohio State University",
	"msu.edu":              "Michigan State University",
	"indiana.edu":          "Indiana University",
	"purdue.edu":           "Purdue University",
	"uiuc.edu":             "University of Illinois at Urbana-Champaign",
	"illinois.edu":         "University of Illinois",
	"wisc.edu":             "University of Wisconsin",
	"umn.edu":              "University of Minnesota",
	"iastate.edu":          "Iowa State University",
	"uiowa.edu":            "University of Iowa",
	"ku.edu":               "University of Kansas",
	"mizzou.edu":           "University of Missouri",
	"ou.edu":               "University of Oklahoma",
	"okstate.edu":          "Oklahoma State University",
	"tamu.edu":             "Texas A&M University",
	"utexas.edu":           "University of Texas",
	"ttu.edu":              "Texas Tech University",
	"uh.edu":               "University of Houston",
	"utdallas.edu":         "University of Texas at Dallas",
	"utsa.edu":             "University of Texas at San Antonio",

	// Liberal arts colleges
	"stthomas.edu":   "University of St. Thomas",
	"hamline.edu":    "Hamline University",
	"augsburg.edu":   "Augsburg University",
	"stkate.edu":     "St. Catherine University",
	"stolaf.edu":     "St. Olaf College",
	"carleton.edu":   "Carleton College",
	"macalester.edu": "Macalester College",
	"gustavus.edu":   "Gustavus Adolphus College",
	"stjohns.edu":    "St. John's University",
}

// Classify maps an email address to a trust decision. The address must contain
// exactly one "@"; anything else is untrusted with no college name. Matching is
// a case-insensitive exact lookup of the domain part.
func Classify(email string) (trusted bool, collegeName string) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(email)), "@")
	if len(parts) != 2 || parts[1] == "" {
		return false, ""
	}
	name, ok := registry[parts[1]]
	if !ok {
		return false, ""
	}
	return true, name
}

// Names returns every canonical college name in the registry, deduplicated.
// Used to seed the colleges table at bootstrap.
func Names() []string {
	seen := make(map[string]struct{}, len(registry))
	names := make([]string, 0, len(registry))
	for _, n := range registry {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names
}
