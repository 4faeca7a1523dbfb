// Package scraper fetches statistics pages and extracts their HTML tables.
//
// Every <table> on a page becomes a table.Table tagged with its id attribute. The
// header is the last row of <thead>, which skips the grouping row that spans the
// real column names. Body rows come from <tbody> and <tfoot>; header rows the site
// repeats inside the body are skipped. Cells spanning several columns repeat their
// text across the span. Tables shipped inside HTML comments, which the site uses
// for every table below the first screen, are parsed as well.
//
// Scraper fetches pages over plain HTTP; BrowserFetcher renders them in headless
// Chrome for pages that build their tables with JavaScript.
package scraper
